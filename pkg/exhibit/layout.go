package exhibit

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"organtour/pkg/hotspot"
)

// ringSegments is the number of edges used to approximate a range circle.
const ringSegments = 32

// Layout renders the floor plan of the exhibit as GeoJSON in room coordinates
// (meters, X east, Z north). Each hotspot contributes its reference point and its
// prompt range; route, when not empty, is added as a line.
func Layout(hotspots []hotspot.Status, route orb.LineString) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, h := range hotspots {
		center := orb.Point{h.Position.X, h.Position.Z}

		pt := geojson.NewFeature(center)
		pt.ID = h.Name
		pt.Properties["kind"] = "hotspot"
		pt.Properties["name"] = h.Name
		pt.Properties["title"] = h.Title
		pt.Properties["height"] = h.Position.Y
		pt.Properties["state"] = h.State
		pt.Properties["enabled"] = h.Enabled
		fc.Append(pt)

		for _, r := range []struct {
			kind   string
			radius float64
		}{
			{"prompt_range", h.PromptDistance},
			{"auto_hide_range", h.AutoHideDistance},
		} {
			f := geojson.NewFeature(orb.Polygon{circle(center, r.radius)})
			f.Properties["kind"] = r.kind
			f.Properties["name"] = h.Name
			f.Properties["radius"] = r.radius
			fc.Append(f)
		}
	}

	if len(route) > 1 {
		f := geojson.NewFeature(route)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}
	return fc
}

// circle approximates a closed ring of the given radius around c.
func circle(c orb.Point, radius float64) orb.Ring {
	ring := make(orb.Ring, 0, ringSegments+1)
	for i := range ringSegments {
		a := 2 * math.Pi * float64(i) / ringSegments
		ring = append(ring, orb.Point{c[0] + radius*math.Cos(a), c[1] + radius*math.Sin(a)})
	}
	return append(ring, ring[0])
}
