// Package kml writes the chained route as a KML document: one folder per group holding the
// ordered stops and the group's path.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dave/daisy/geo"
)

const Namespace = "http://www.opengis.net/kml/2.2"

type Root struct {
	Xmlns    string   `xml:"xmlns,attr"`
	Document Document `xml:"Document"`
}

func (r Root) Encode(w io.Writer) error {
	wrapper := struct {
		Root
		XMLName struct{} `xml:"kml"`
	}{Root: r}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(wrapper); err != nil {
		return fmt.Errorf("marshaling kml: %w", err)
	}
	return enc.Flush()
}

func (r Root) Save(fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("creating kml file %q: %w", fpath, err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing kml file %q: %w", fpath, err)
	}
	return f.Close()
}

type Document struct {
	Name        string    `xml:"name"`
	Description string    `xml:"description,omitempty"`
	Open        int       `xml:"open"`
	Styles      []*Style  `xml:"Style"`
	Folders     []*Folder `xml:"Folder"`
}

type Style struct {
	Id        string     `xml:"id,attr,omitempty"`
	LineStyle *LineStyle `xml:"LineStyle,omitempty"`
	IconStyle *IconStyle `xml:"IconStyle,omitempty"`
}

type LineStyle struct {
	Color string  `xml:"color"`
	Width float64 `xml:"width,omitempty"`
}

type IconStyle struct {
	Color string  `xml:"color"`
	Scale float64 `xml:"scale,omitempty"`
}

type Folder struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description,omitempty"`
	Open        int          `xml:"open"`
	Placemarks  []*Placemark `xml:"Placemark"`
}

type Placemark struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	StyleUrl    string      `xml:"styleUrl,omitempty"`
	Point       *Point      `xml:"Point,omitempty"`
	LineString  *LineString `xml:"LineString,omitempty"`
}

type Point struct {
	Coordinates string `xml:"coordinates"`
}

func PosPoint(pos geo.Pos) *Point {
	return &Point{Coordinates: PosCoordinates(pos)}
}

type LineString struct {
	Tessellate   bool   `xml:"tessellate"`
	AltitudeMode string `xml:"altitudeMode"`
	Coordinates  string `xml:"coordinates"`
}

func LinePath(line geo.Line) *LineString {
	return &LineString{
		Tessellate:   true,
		AltitudeMode: "clampToGround",
		Coordinates:  LineCoordinates(line),
	}
}

func LineCoordinates(line geo.Line) string {
	parts := make([]string, len(line))
	for i, pos := range line {
		parts[i] = PosCoordinates(pos)
	}
	return strings.Join(parts, " ")
}

// PosCoordinates renders lon,lat,ele, KML's axis order.
func PosCoordinates(pos geo.Pos) string {
	return fmt.Sprintf("%v,%v,%v", pos.Lon, pos.Lat, pos.Ele)
}

// Colors are aabbggrr line colours cycled over the groups.
var Colors = []struct{ Name, Color string }{
	{"red", "ff1400ff"},
	{"green", "ff78ff00"},
	{"blue", "ffff7800"},
	{"cyan", "fff0ff14"},
	{"orange", "ff1478ff"},
	{"dark_green", "ff008c14"},
	{"purple", "ffff7878"},
	{"pink", "ffa078f0"},
	{"brown", "ff143c96"},
	{"dark_blue", "fff01414"},
}

// Styles returns one line style per colour, referenced as "#<name>".
func Styles() []*Style {
	styles := make([]*Style, len(Colors))
	for i, c := range Colors {
		styles[i] = &Style{
			Id:        c.Name,
			LineStyle: &LineStyle{Color: c.Color, Width: 4},
			IconStyle: &IconStyle{Color: c.Color, Scale: 0.8},
		}
	}
	return styles
}

// StyleUrl picks the colour for the i-th group.
func StyleUrl(i int) string {
	return "#" + Colors[i%len(Colors)].Name
}
