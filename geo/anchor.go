package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/geo/s2"
)

var ErrInvalidLatLng = errors.New("invalid LatLng")

// Anchor is the "lat,lon" value handed to the routing tool with -a. The tool rotates its result
// so the stop nearest the anchor comes first. The zero value means no anchor.
type Anchor string

const NoAnchor Anchor = ""

// ParseAnchor validates s the way the routing tool will read it: spaces are ignored, and two
// comma separated degrees must form a valid LatLng. An empty string returns NoAnchor.
func ParseAnchor(s string) (Anchor, error) {
	clean := strings.ReplaceAll(s, " ", "")
	if clean == "" {
		return NoAnchor, nil
	}
	parts := strings.Split(clean, ",")
	if len(parts) != 2 {
		return NoAnchor, fmt.Errorf("anchor %q: expected lat,lon", s)
	}
	pos, err := ParsePos(parts[0], parts[1])
	if err != nil {
		return NoAnchor, fmt.Errorf("anchor %q: %w", s, err)
	}
	if !s2.LatLngFromDegrees(pos.Lat, pos.Lon).IsValid() {
		return NoAnchor, fmt.Errorf("anchor %q: %w", s, ErrInvalidLatLng)
	}
	return Anchor(clean), nil
}

// AnchorFromFields builds an anchor from the lat and lon columns of a tool output row.
func AnchorFromFields(lat, lon string) (Anchor, error) {
	return ParseAnchor(strings.TrimSpace(lat) + "," + strings.TrimSpace(lon))
}

func (a Anchor) Empty() bool {
	return a == NoAnchor
}

// Pos converts a non-empty anchor back into a position.
func (a Anchor) Pos() (Pos, error) {
	parts := strings.Split(string(a), ",")
	if len(parts) != 2 {
		return Pos{}, fmt.Errorf("anchor %q: expected lat,lon", string(a))
	}
	return ParsePos(parts[0], parts[1])
}

func (a Anchor) String() string {
	return string(a)
}
