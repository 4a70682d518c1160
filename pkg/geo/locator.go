package geo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLocator is returned when a Maidenhead grid locator cannot be parsed.
var ErrInvalidLocator = errors.New("invalid maidenhead locator")

// ParseLocator converts a 2, 4, 6 or 8 character Maidenhead locator (e.g. "JO31", "FN20xr")
// to the center point of the square it names.
func ParseLocator(grid string) (Point, error) {
	g := strings.TrimSpace(grid)
	if len(g) < 2 || len(g) > 8 || len(g)%2 != 0 {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidLocator, grid)
	}
	g = strings.ToUpper(g)

	// Cell sizes in degrees per pair: field, square, subsquare, extended square
	lonSize := [4]float64{20, 2, 2.0 / 24, 2.0 / 240}
	latSize := [4]float64{10, 1, 1.0 / 24, 1.0 / 240}

	lon, lat := -180.0, -90.0
	pairs := len(g) / 2
	for i := 0; i < pairs; i++ {
		a, b := g[2*i], g[2*i+1]
		var x, y int
		switch i {
		case 0:
			if a < 'A' || a > 'R' || b < 'A' || b > 'R' {
				return Point{}, fmt.Errorf("%w: field %q", ErrInvalidLocator, g[:2])
			}
			x, y = int(a-'A'), int(b-'A')
		case 1, 3:
			if a < '0' || a > '9' || b < '0' || b > '9' {
				return Point{}, fmt.Errorf("%w: square %q", ErrInvalidLocator, g[2*i:2*i+2])
			}
			x, y = int(a-'0'), int(b-'0')
		case 2:
			if a < 'A' || a > 'X' || b < 'A' || b > 'X' {
				return Point{}, fmt.Errorf("%w: subsquare %q", ErrInvalidLocator, g[4:6])
			}
			x, y = int(a-'A'), int(b-'A')
		}
		lon += float64(x) * lonSize[i]
		lat += float64(y) * latSize[i]
	}

	// Center of the smallest cell named
	lon += lonSize[pairs-1] / 2
	lat += latSize[pairs-1] / 2

	return Point{Lat: lat, Lon: lon}, nil
}
