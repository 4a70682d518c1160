package model

import "testing"

func TestQSO_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		qso  QSO
		want string
	}{
		{"WithGrid", QSO{Call: "K1ABC", Grid: "FN42"}, "K1ABC (FN42)"},
		{"NoGrid", QSO{Call: "DL1XYZ"}, "DL1XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.qso.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
