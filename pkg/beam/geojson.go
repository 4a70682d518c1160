package beam

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON converts the beam to a FeatureCollection with one MultiLineString per line.
// Lines are split where they cross the antimeridian so flat maps do not draw a
// stroke across the whole world.
func (b *Beam) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	origin := geojson.NewFeature(orb.Point{b.Origin.Lon, b.Origin.Lat})
	origin.Properties["role"] = "origin"
	if b.Bearing != nil {
		origin.Properties["bearing"] = *b.Bearing
	}
	fc.Append(origin)

	for i := range b.Lines {
		l := &b.Lines[i]
		f := geojson.NewFeature(splitAtAntimeridian(l.Vertices))
		f.Properties["role"] = l.Role
		f.Properties["color"] = l.Color
		f.Properties["opacity"] = l.Opacity
		fc.Append(f)
	}
	if !b.Empty() {
		fc.BBox = geojson.NewBBox(b.Bound())
	}
	return fc
}

func splitAtAntimeridian(vs []Vertex) orb.MultiLineString {
	var out orb.MultiLineString
	var cur orb.LineString
	for i, v := range vs {
		if i > 0 && math.Abs(v.Lon-vs[i-1].Lon) > 180 {
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = nil
		}
		cur = append(cur, orb.Point{v.Lon, v.Lat})
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

// Bound returns the bounding box of all beam vertices.
func (b *Beam) Bound() orb.Bound {
	bound := orb.Bound{Min: orb.Point{b.Origin.Lon, b.Origin.Lat}, Max: orb.Point{b.Origin.Lon, b.Origin.Lat}}
	for _, l := range b.Lines {
		for _, v := range l.Vertices {
			bound = bound.Extend(orb.Point{v.Lon, v.Lat})
		}
	}
	return bound
}
