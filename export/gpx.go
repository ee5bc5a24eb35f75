package export

import (
	"fmt"
	"os"

	"github.com/dave/daisy/globals"
	"github.com/tkrajina/gpxgo/gpx"
)

// GPX builds a GPX 1.1 document with every stop as a waypoint and one route per group.
func GPX(legs []Leg, name string) *gpx.GPX {
	g := &gpx.GPX{
		Version: "1.1",
		Creator: "daisy " + globals.VERSION,
		Name:    name,
	}
	for _, leg := range legs {
		rte := gpx.GPXRoute{Name: leg.Key}
		for _, s := range leg.Stops {
			p := gpx.GPXPoint{
				Point: gpx.Point{
					Latitude:  s.Pos.Lat,
					Longitude: s.Pos.Lon,
				},
				Name:        s.Name(),
				Description: leg.Key,
			}
			if s.Pos.Ele != 0 {
				p.Elevation.SetValue(s.Pos.Ele)
			}
			g.Waypoints = append(g.Waypoints, p)
			rte.Points = append(rte.Points, p)
		}
		g.Routes = append(g.Routes, rte)
	}
	return g
}

func SaveGPX(legs []Leg, name, fpath string) error {
	b, err := GPX(legs, name).ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("marshaling gpx: %w", err)
	}
	return os.WriteFile(fpath, b, 0666)
}
