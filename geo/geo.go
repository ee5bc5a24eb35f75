package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0088

type Pos struct {
	Lat, Lon, Ele float64
}

// ParsePos parses a latitude and longitude pair as written by the routing tool.
func ParsePos(lat, lon string) (Pos, error) {
	var p Pos
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Pos{}, fmt.Errorf("parsing latitude %q: %w", lat, err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Pos{}, fmt.Errorf("parsing longitude %q: %w", lon, err)
	}
	return p, nil
}

// Distance in km to another location, ignoring elevation.
func (p Pos) Distance(to Pos) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLon := (p.Lon - to.Lon) * math.Pi / 180

	cos := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * earthRadiusKm
}

func (p Pos) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

type Line []Pos

// Length is the sum of the leg distances in km.
func (l Line) Length() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += l[i-1].Distance(l[i])
	}
	return total
}

// Bounds returns the south-west and north-east corners of the line.
func (l Line) Bounds() (min, max Pos) {
	if len(l) == 0 {
		return Pos{}, Pos{}
	}
	min, max = l[0], l[0]
	for _, p := range l[1:] {
		min.Lat = math.Min(min.Lat, p.Lat)
		min.Lon = math.Min(min.Lon, p.Lon)
		max.Lat = math.Max(max.Lat, p.Lat)
		max.Lon = math.Max(max.Lon, p.Lon)
	}
	return min, max
}

func MergeLines(lines []Line) Line {
	var n int
	for _, l := range lines {
		n += len(l)
	}
	merged := make(Line, 0, n)
	for _, l := range lines {
		merged = append(merged, l...)
	}
	return merged
}
