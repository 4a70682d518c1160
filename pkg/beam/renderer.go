// Package beam builds renderable antenna beam geometry from a displayed bearing.
package beam

import (
	"math"
	"time"

	"rotorgo/pkg/geo"
)

// Line roles within a Beam.
const (
	RoleCenter = "center"
	RoleLeft   = "left"
	RoleRight  = "right"
)

// Vertex is one sampled point along a beam line.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"` // altitude hint for globe surfaces, in Earth radii
}

// Line is an ordered polyline with its styling hint.
type Line struct {
	Role     string   `json:"role"`
	Vertices []Vertex `json:"vertices"`
	Color    string   `json:"color"`
	Opacity  float64  `json:"opacity"`
}

// Beam is the complete render description for one frame.
// An empty Lines slice means nothing should be drawn; Bearing is then nil.
type Beam struct {
	Bearing *float64  `json:"bearing,omitempty"`
	Origin  geo.Point `json:"origin"`
	Pulse   float64   `json:"pulse"`
	Lines   []Line    `json:"lines"`
}

// Empty reports whether the beam has no geometry.
func (b *Beam) Empty() bool {
	return len(b.Lines) == 0
}

// Config controls beam shape and animation.
type Config struct {
	MaxDistanceKm  float64
	Segments       int
	HalfWidthStart float64 // degrees either side at the origin
	HalfWidthEnd   float64 // degrees either side at MaxDistanceKm
	Altitude       float64
	Color          string
	EdgeColor      string
	Pulse          PulseConfig
}

// DefaultConfig returns the shape used by both the compass and the globe.
func DefaultConfig() Config {
	return Config{
		MaxDistanceKm:  18000,
		Segments:       50,
		HalfWidthStart: 0.5,
		HalfWidthEnd:   10,
		Altitude:       0.01,
		Color:          "#ff9800",
		EdgeColor:      "#ffc107",
		Pulse:          DefaultPulseConfig(),
	}
}

// Renderer turns a displayed bearing into beam geometry. It never mutates rotator state.
type Renderer struct {
	cfg   Config
	pulse *Pulse
}

// NewRenderer creates a renderer, filling unset fields from DefaultConfig.
func NewRenderer(cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = def.MaxDistanceKm
	}
	if cfg.Segments <= 0 {
		cfg.Segments = def.Segments
	}
	if cfg.HalfWidthEnd <= 0 {
		cfg.HalfWidthStart, cfg.HalfWidthEnd = def.HalfWidthStart, def.HalfWidthEnd
	}
	if cfg.Color == "" {
		cfg.Color = def.Color
	}
	if cfg.EdgeColor == "" {
		cfg.EdgeColor = cfg.Color
	}
	return &Renderer{cfg: cfg, pulse: NewPulse(cfg.Pulse)}
}

// Render builds the beam for bearing from origin at animation time clock.
// When connected is false the beam is cleared rather than drawn at a stale bearing.
func (r *Renderer) Render(bearing float64, origin geo.Point, clock time.Duration, connected bool) Beam {
	b := Beam{Origin: origin}
	if !connected {
		return b
	}
	b.Bearing = &bearing

	opacity := r.pulse.Opacity(clock)
	b.Pulse = opacity

	center := make([]Vertex, 0, r.cfg.Segments+1)
	left := make([]Vertex, 0, r.cfg.Segments+1)
	right := make([]Vertex, 0, r.cfg.Segments+1)

	for i := 0; i <= r.cfg.Segments; i++ {
		frac := float64(i) / float64(r.cfg.Segments)
		d := frac * r.cfg.MaxDistanceKm
		hw := r.HalfWidth(d)

		center = append(center, r.vertex(origin, bearing, d))
		left = append(left, r.vertex(origin, geo.NormalizeBearing(bearing-hw), d))
		right = append(right, r.vertex(origin, geo.NormalizeBearing(bearing+hw), d))
	}

	b.Lines = []Line{
		{Role: RoleCenter, Vertices: center, Color: r.cfg.Color, Opacity: opacity},
		{Role: RoleLeft, Vertices: left, Color: r.cfg.EdgeColor, Opacity: opacity * edgeOpacity},
		{Role: RoleRight, Vertices: right, Color: r.cfg.EdgeColor, Opacity: opacity * edgeOpacity},
	}
	return b
}

// Edges are drawn fainter than the center line.
const edgeOpacity = 0.6

// HalfWidth returns the beam half-width in degrees at distanceKm from the origin.
func (r *Renderer) HalfWidth(distanceKm float64) float64 {
	frac := math.Min(1, math.Max(0, distanceKm/r.cfg.MaxDistanceKm))
	return r.cfg.HalfWidthStart + (r.cfg.HalfWidthEnd-r.cfg.HalfWidthStart)*frac
}

func (r *Renderer) vertex(origin geo.Point, bearing, d float64) Vertex {
	p := geo.DestinationPoint(origin, bearing, d)
	return Vertex{Lat: p.Lat, Lon: p.Lon, Alt: r.cfg.Altitude}
}
