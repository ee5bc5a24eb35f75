// Package tiler draws a preview image of the chained route.
package tiler

import (
	"fmt"
	"math"

	"github.com/dave/daisy/export"
	"github.com/dave/daisy/geo"
	"github.com/dave/daisy/kml"
	"github.com/fogleman/gg"
)

const (
	TileSize = 256
	Padding  = 24.0

	// Web Mercator is undefined at the poles.
	maxLat = 85.05112878
)

// Projection maps positions onto an image, fitted to the bounds of the route.
type Projection struct {
	scale         float64
	offsetX       float64
	offsetY       float64
	width, height float64
}

// Fit returns a projection that centres the line's bounding box in a width x height image.
func Fit(line geo.Line, width, height int) Projection {
	p := Projection{width: float64(width), height: float64(height), scale: 1}
	if len(line) == 0 {
		return p
	}
	min, max := line.Bounds()
	x0, y1 := latLonToPixelXY(min.Lat, min.Lon, 0)
	x1, y0 := latLonToPixelXY(max.Lat, max.Lon, 0)
	dx, dy := x1-x0, y1-y0
	availX, availY := p.width-2*Padding, p.height-2*Padding
	switch {
	case dx == 0 && dy == 0:
	case dx == 0:
		p.scale = availY / dy
	case dy == 0:
		p.scale = availX / dx
	default:
		p.scale = math.Min(availX/dx, availY/dy)
	}
	p.offsetX = p.width/2 - (x0+dx/2)*p.scale
	p.offsetY = p.height/2 - (y0+dy/2)*p.scale
	return p
}

// Point returns the image coordinates of pos.
func (p Projection) Point(pos geo.Pos) (float64, float64) {
	x, y := latLonToPixelXY(pos.Lat, pos.Lon, 0)
	return x*p.scale + p.offsetX, y*p.scale + p.offsetY
}

// Render draws each group's path in its own colour, a dot per stop and the group key at the
// group's first stop.
func Render(legs []export.Leg, width, height int) *gg.Context {
	var lines []geo.Line
	for _, leg := range legs {
		lines = append(lines, leg.Line())
	}
	proj := Fit(geo.MergeLines(lines), width, height)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	// path from the end of the previous group to the start of the next
	dc.SetRGBA(0, 0, 0, 0.3)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	for i := 1; i < len(legs); i++ {
		prev, next := legs[i-1].Stops, legs[i].Stops
		if len(prev) == 0 || len(next) == 0 {
			continue
		}
		dc.MoveTo(proj.Point(prev[len(prev)-1].Pos))
		dc.LineTo(proj.Point(next[0].Pos))
		dc.Stroke()
	}
	dc.SetDash()

	for i, leg := range legs {
		if len(leg.Stops) == 0 {
			continue
		}
		dc.SetHexColor(Color(i))
		dc.SetLineWidth(3)
		for j, s := range leg.Stops {
			x, y := proj.Point(s.Pos)
			if j == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		for _, s := range leg.Stops {
			x, y := proj.Point(s.Pos)
			dc.DrawCircle(x, y, 3)
			dc.Fill()
		}
	}

	dc.SetRGB(0, 0, 0)
	for _, leg := range legs {
		if len(leg.Stops) == 0 {
			continue
		}
		x, y := proj.Point(leg.Stops[0].Pos)
		dc.DrawStringAnchored(leg.Key, x+5, y-5, 0, 0)
	}
	return dc
}

// SavePNG renders the legs and writes the image to fpath.
func SavePNG(fpath string, legs []export.Leg, width, height int) error {
	if err := Render(legs, width, height).SavePNG(fpath); err != nil {
		return fmt.Errorf("saving preview %q: %w", fpath, err)
	}
	return nil
}

// Color returns the "#rrggbb" colour of the i-th group, matching the KML line styles.
func Color(i int) string {
	c := kml.Colors[i%len(kml.Colors)].Color
	return "#" + c[6:8] + c[4:6] + c[2:4]
}

// latLonToPixelXY converts latitude and longitude to pixel x/y coordinates at a given zoom level.
func latLonToPixelXY(lat, lon float64, zoom int) (float64, float64) {
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	sinLat := math.Sin(lat * math.Pi / 180.0)
	pixelX := ((lon + 180.0) / 360.0) * TileSize * math.Exp2(float64(zoom))
	pixelY := (0.5 - math.Log((1.0+sinLat)/(1.0-sinLat))/(4.0*math.Pi)) * TileSize * math.Exp2(float64(zoom))
	return pixelX, pixelY
}
