package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"10s", 10 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"1.5h", 90 * time.Minute, false},
		{"1d", 24 * time.Hour, false},
		{"30d", 720 * time.Hour, false},
		{"2d2h", 50 * time.Hour, false},
		{"1.5d", 36 * time.Hour, false},
		{"", 0, false},
		{"invalid", 0, true},
		{"1w", 0, true},
		{"2h3d", 0, true},
		{"1dx", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"100m", 100, false},
		{"18000km", 18000000, false},
		{"0.5km", 500, false},
		{"500", 500, false},
		{"10x", 0, true},
		{"1nm", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDistance(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDistance(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDistance(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDistance_YAML(t *testing.T) {
	type wrap struct {
		D Distance `yaml:"d"`
	}

	var w wrap
	if err := yaml.Unmarshal([]byte("d: 12000km\n"), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.D.Kilometers() != 12000 {
		t.Errorf("expected 12000 km, got %v", w.D.Kilometers())
	}

	if err := yaml.Unmarshal([]byte("d: 250\n"), &w); err != nil {
		t.Fatalf("unmarshal bare number: %v", err)
	}
	if w.D != 250 {
		t.Errorf("expected 250 m, got %v", w.D)
	}

	out, err := yaml.Marshal(wrap{D: Distance(18000 * 1000)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "18000km") {
		t.Errorf("expected km rendering, got %q", out)
	}
}

func TestDuration_YAML(t *testing.T) {
	type wrap struct {
		D Duration `yaml:"d"`
	}

	var w wrap
	if err := yaml.Unmarshal([]byte("d: 30d\n"), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if time.Duration(w.D) != 30*Day {
		t.Errorf("expected 30 days, got %v", time.Duration(w.D))
	}

	out, err := yaml.Marshal(wrap{D: Duration(1500 * time.Millisecond)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "1.5s") {
		t.Errorf("expected 1.5s, got %q", out)
	}
}
