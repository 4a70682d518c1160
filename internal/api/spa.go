package api

import (
	"net/http"
	"os"
	"path"
)

// spaFileSystem serves the frontend build. Client-side routes such as /globe
// fall back to index.html; missing assets (anything with an extension) stay 404.
type spaFileSystem struct {
	root http.FileSystem
}

func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if os.IsNotExist(err) && path.Ext(name) == "" {
		return s.root.Open("/index.html")
	}
	return f, err
}
