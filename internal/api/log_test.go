package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rotorgo/pkg/logging"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Command",
			input: `time=2026-01-18T06:50:46.074+01:00 level=INFO msg="Rotator command issued" bearing=288 source=compass id=7f4bb0f2-5a1c-4c1e-9a64-2f2b8d9f3e11`,
			want:  "06:50:46 Rotator command issued (bearing=288, source=compass)",
		},
		{
			name:  "KeepsLoggedOrder",
			input: `time=2026-01-18T07:02:11+01:00 level=WARN msg="Rotator command failed" component=rotator source=api bearing=90 error="serial port closed"`,
			want:  "07:02:11 Rotator command failed (source=api, bearing=90, error=serial port closed)",
		},
		{
			name:  "NoParams",
			input: `time=2026-01-18T06:50:46+01:00 level=INFO msg="Scheduler started"`,
			want:  "06:50:46 Scheduler started",
		},
		{
			name:  "Unstructured",
			input: "plain text",
			want:  "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.input); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestHandleLatestLog(t *testing.T) {
	_, _ = logging.GlobalLogCapture.Write([]byte(`time=2026-01-18T06:50:46+01:00 level=INFO msg="Rotator state changed" to=connected` + "\n"))

	w := httptest.NewRecorder()
	handleLatestLog(w, httptest.NewRequest("GET", "/api/log/latest", http.NoBody))

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body["log"], "Rotator state changed (to=connected)") {
		t.Errorf("unexpected log body %q", body["log"])
	}
}
