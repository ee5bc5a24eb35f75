// Package export writes the chained legs to GPX, GeoJSON and KML files.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dave/daisy/chain"
	"github.com/dave/daisy/geo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stop is one routed waypoint.
type Stop struct {
	Label string
	Order int // position in the whole chain, from 1
	Pos   geo.Pos
}

// Leg is the routed stops of one group.
type Leg struct {
	Key   string
	Stops []Stop
}

func (l Leg) Line() geo.Line {
	line := make(geo.Line, len(l.Stops))
	for i, s := range l.Stops {
		line[i] = s.Pos
	}
	return line
}

// FromReport converts the chain legs, numbering stops across the whole chain. Rows without
// valid coordinates are dropped.
func FromReport(r *chain.Report) []Leg {
	legs := make([]Leg, 0, len(r.Legs))
	order := 0
	for _, l := range r.Legs {
		leg := Leg{Key: l.Key}
		for _, row := range l.Rows {
			if len(row) < 3 {
				continue
			}
			pos, err := geo.ParsePos(row[1], row[2])
			if err != nil {
				continue
			}
			order++
			leg.Stops = append(leg.Stops, Stop{Label: strings.TrimSpace(row[0]), Order: order, Pos: pos})
		}
		legs = append(legs, leg)
	}
	return legs
}

func (s Stop) Name() string {
	return strconv.Itoa(s.Order) + " " + s.Label
}

// Elevations looks up an elevation in metres for a position.
type Elevations interface {
	Elevation(lat, lon float64) (float64, error)
}

// AddElevations fills Ele on every stop. Failed lookups are logged and leave the elevation at 0.
func AddElevations(legs []Leg, ele Elevations, logger *zap.Logger) {
	for i := range legs {
		for j := range legs[i].Stops {
			s := &legs[i].Stops[j]
			e, err := ele.Elevation(s.Pos.Lat, s.Pos.Lon)
			if err != nil {
				logger.Warn("elevation lookup failed", zap.String("stop", s.Label), zap.Error(err))
				continue
			}
			s.Pos.Ele = e
		}
	}
}

// Targets are the export files to write; empty paths are skipped.
type Targets struct {
	GPX     string
	GeoJSON string
	KML     string
	Name    string // document / route collection name
}

// Write writes every requested target. The files are independent, so they are written
// concurrently.
func Write(ctx context.Context, legs []Leg, t Targets, logger *zap.Logger) error {
	g, _ := errgroup.WithContext(ctx)
	write := func(kind, fpath string, f func([]Leg, string, string) error) {
		if fpath == "" {
			return
		}
		g.Go(func() error {
			if err := f(legs, t.Name, fpath); err != nil {
				return fmt.Errorf("writing %s: %w", kind, err)
			}
			logger.Info("wrote export", zap.String("format", kind), zap.String("path", fpath))
			return nil
		})
	}
	write("gpx", t.GPX, SaveGPX)
	write("geojson", t.GeoJSON, SaveGeoJSON)
	write("kml", t.KML, SaveKML)
	return g.Wait()
}
