package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111.19,
		},
		{
			name: "Antipodal",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 180},
			want: math.Pi * EarthRadiusKm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
			if tt.want == 0 && got != 0 {
				t.Errorf("Distance() = %v, want 0", got)
			}
		})
	}
}

func TestBearingBetween(t *testing.T) {
	tests := []struct {
		name string
		from Point
		to   Point
		want float64
	}{
		{"Due North", Point{0, 0}, Point{10, 0}, 0},
		{"Due East", Point{0, 0}, Point{0, 10}, 90},
		{"Due South", Point{10, 0}, Point{0, 0}, 180},
		{"Due West", Point{0, 10}, Point{0, 0}, 270},
		{"Across Seam Eastbound", Point{0, 179}, Point{0, -179}, 90},
		{"Across Seam Westbound", Point{0, -179}, Point{0, 179}, 270},
		{"From North Pole", Point{90, 0}, Point{0, 0}, 180},
		{"To North Pole", Point{45, 100}, Point{90, 0}, 0},
		{"London to New York", Point{51.5074, -0.1278}, Point{40.7128, -74.0060}, 288},
		{"Just West Of North Rounds To Zero", Point{0, 0}, Point{10, -0.01}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingBetween(tt.from, tt.to)
			if got != tt.want {
				t.Errorf("BearingBetween() = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Errorf("BearingBetween() = %v, outside [0, 360)", got)
			}
		})
	}
}

func TestBearingBetween_Range(t *testing.T) {
	for lat1 := -80.0; lat1 <= 80; lat1 += 20 {
		for lon1 := -180.0; lon1 <= 180; lon1 += 45 {
			for lat2 := -85.0; lat2 <= 85; lat2 += 17 {
				for lon2 := -175.0; lon2 <= 175; lon2 += 35 {
					got := BearingBetween(Point{lat1, lon1}, Point{lat2, lon2})
					if got < 0 || got >= 360 || math.IsNaN(got) {
						t.Fatalf("BearingBetween(%v,%v -> %v,%v) = %v", lat1, lon1, lat2, lon2, got)
					}
				}
			}
		}
	}
}

func TestDestinationPoint(t *testing.T) {
	tests := []struct {
		name    string
		start   Point
		bearing float64
		distKm  float64
		want    Point
	}{
		{"North 1 degree", Point{0, 0}, 0, 111.195, Point{1, 0}},
		{"East 1 degree", Point{0, 0}, 90, 111.195, Point{0, 1}},
		{"Zero distance", Point{12.5, -45}, 123, 0, Point{12.5, -45}},
		{"Across seam", Point{0, 179.5}, 90, 111.195, Point{0, -179.5}},
		{"Over the pole", Point{80, 0}, 0, 20 * 111.195, Point{80, 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DestinationPoint(tt.start, tt.bearing, tt.distKm)
			if math.Abs(got.Lat-tt.want.Lat) > 0.01 || math.Abs(NormalizeAngle(got.Lon-tt.want.Lon)) > 0.01 {
				t.Errorf("DestinationPoint() = %+v, want %+v", got, tt.want)
			}
			if got.Lon <= -180 || got.Lon > 180 {
				t.Errorf("longitude %v outside (-180, 180]", got.Lon)
			}
		})
	}
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	pairs := []struct {
		name string
		from Point
		to   Point
	}{
		{"London-NewYork", Point{51.5074, -0.1278}, Point{40.7128, -74.0060}},
		{"Sydney-Tokyo", Point{-33.8688, 151.2093}, Point{35.6762, 139.6503}},
		{"Seam", Point{-10, 170}, Point{15, -165}},
		{"Short hop", Point{48.1, 11.5}, Point{48.2, 11.7}},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			// Unrounded bearing so the round trip tolerance stays tight over long paths
			lat1 := tt.from.Lat * degToRad
			lat2 := tt.to.Lat * degToRad
			dLon := (tt.to.Lon - tt.from.Lon) * degToRad
			brng := math.Atan2(math.Sin(dLon)*math.Cos(lat2),
				math.Cos(lat1)*math.Sin(lat2)-math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)) * radToDeg

			got := DestinationPoint(tt.from, brng, Distance(tt.from, tt.to))
			if math.Abs(got.Lat-tt.to.Lat) > 1e-6 || math.Abs(NormalizeAngle(got.Lon-tt.to.Lon)) > 1e-6 {
				t.Errorf("round trip = %+v, want %+v", got, tt.to)
			}

			// Rounded bearing still lands within a degree's worth of cross-track error
			rounded := DestinationPoint(tt.from, BearingBetween(tt.from, tt.to), Distance(tt.from, tt.to))
			if Distance(rounded, tt.to) > Distance(tt.from, tt.to)*0.01+1 {
				t.Errorf("rounded round trip = %+v, too far from %+v", rounded, tt.to)
			}
		})
	}
}

func TestCircularDistance(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{350, 10, 20},
		{10, 350, 20},
		{90, 270, 180},
		{0, 0, 0},
		{0, 360, 0},
		{90, 95, 5},
		{-10, 10, 20},
	}
	for _, tt := range tests {
		if got := CircularDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CircularDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	tests := map[float64]float64{0: 0, 360: 0, 370: 10, -10: 350, 720.5: 0.5}
	for in, want := range tests {
		if got := NormalizeBearing(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeBearing(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeLongitude(t *testing.T) {
	tests := map[float64]float64{0: 0, 180: 180, -180: 180, 190: -170, -190: 170, 540: 180}
	for in, want := range tests {
		if got := NormalizeLongitude(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeLongitude(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		grid    string
		want    Point
		wantErr bool
	}{
		{grid: "JO", want: Point{Lat: 55, Lon: 10}},
		{grid: "JO31", want: Point{Lat: 51.5, Lon: 7}},
		{grid: "fn20", want: Point{Lat: 40.5, Lon: -75}},
		{grid: "IO91wm", want: Point{Lat: 51.5208, Lon: -0.125}},
		{grid: "IO91wm48", want: Point{Lat: 51.5354, Lon: -0.1292}},
		{grid: "Z", wantErr: true},
		{grid: "ZZ00", wantErr: true},
		{grid: "JOAA", wantErr: true},
		{grid: "JO31zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.grid, func(t *testing.T) {
			got, err := ParseLocator(tt.grid)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocator) {
					t.Errorf("ParseLocator(%q) error = %v, want ErrInvalidLocator", tt.grid, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocator(%q) unexpected error: %v", tt.grid, err)
			}
			if math.Abs(got.Lat-tt.want.Lat) > 0.001 || math.Abs(got.Lon-tt.want.Lon) > 0.001 {
				t.Errorf("ParseLocator(%q) = %+v, want %+v", tt.grid, got, tt.want)
			}
		})
	}
}
