package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"rotorgo/pkg/logging"
)

// Regex to capture key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// handleLatestLog returns the last captured log line.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	line := logging.GlobalLogCapture.GetLastLine()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"log": formatLogLine(line),
	}); err != nil {
		slog.Error("Failed to write log response", "error", err)
	}
}

// formatLogLine turns a slog text line into "HH:MM:SS msg (k=v, ...)" for the status bar.
// Attributes keep their logged order; IDs, component tags and long values are dropped.
func formatLogLine(raw string) string {
	var msg, clock string
	var attrs []string

	for _, m := range logRegex.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch {
		case key == "msg":
			msg = val
		case key == "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case statusBarSkip[key], len(val) > maxStatusValue:
		default:
			attrs = append(attrs, key+"="+val)
		}
	}

	if msg == "" {
		return raw
	}

	var b strings.Builder
	if clock != "" {
		b.WriteString(clock)
		b.WriteByte(' ')
	}
	b.WriteString(msg)
	if len(attrs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(attrs, ", "))
		b.WriteByte(')')
	}
	return b.String()
}

const maxStatusValue = 20

var statusBarSkip = map[string]bool{"level": true, "id": true, "component": true}
