package export

import (
	"fmt"

	"github.com/dave/daisy/kml"
)

// KML builds a document with a folder per group: the stops in route order, then the path.
func KML(legs []Leg, name string) kml.Root {
	doc := kml.Document{
		Name:   name,
		Open:   1,
		Styles: kml.Styles(),
	}
	for i, leg := range legs {
		folder := &kml.Folder{
			Name:        leg.Key,
			Description: fmt.Sprintf("%d stops, %.2f km", len(leg.Stops), leg.Line().Length()),
		}
		for _, s := range leg.Stops {
			folder.Placemarks = append(folder.Placemarks, &kml.Placemark{
				Name:     s.Name(),
				StyleUrl: kml.StyleUrl(i),
				Point:    kml.PosPoint(s.Pos),
			})
		}
		if len(leg.Stops) > 1 {
			folder.Placemarks = append(folder.Placemarks, &kml.Placemark{
				Name:       leg.Key,
				StyleUrl:   kml.StyleUrl(i),
				LineString: kml.LinePath(leg.Line()),
			})
		}
		doc.Folders = append(doc.Folders, folder)
	}
	return kml.Root{Xmlns: kml.Namespace, Document: doc}
}

func SaveKML(legs []Leg, name, fpath string) error {
	return KML(legs, name).Save(fpath)
}
