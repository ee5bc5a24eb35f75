package export

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON builds a feature collection with a LineString per group followed by a Point per stop.
func GeoJSON(legs []Leg) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, leg := range legs {
		if len(leg.Stops) > 1 {
			ls := make(orb.LineString, len(leg.Stops))
			for j, s := range leg.Stops {
				ls[j] = orb.Point{s.Pos.Lon, s.Pos.Lat}
			}
			f := geojson.NewFeature(ls)
			f.Properties["group"] = leg.Key
			f.Properties["leg"] = i
			f.Properties["length_km"] = leg.Line().Length()
			fc.Append(f)
		}
		for _, s := range leg.Stops {
			f := geojson.NewFeature(orb.Point{s.Pos.Lon, s.Pos.Lat})
			f.Properties["group"] = leg.Key
			f.Properties["label"] = s.Label
			f.Properties["ord"] = s.Order
			if s.Pos.Ele != 0 {
				f.Properties["ele"] = s.Pos.Ele
			}
			fc.Append(f)
		}
	}
	return fc
}

func SaveGeoJSON(legs []Leg, _ string, fpath string) error {
	b, err := GeoJSON(legs).MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(fpath, b, 0666)
}
