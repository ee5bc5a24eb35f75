package export

import (
	"fmt"
	"net/http"

	"github.com/tkrajina/go-elevations/geoelevations"
)

// Srtm looks up elevations from SRTM tiles, downloading and caching them as needed.
type Srtm struct {
	client *http.Client
	srtm   *geoelevations.Srtm
}

func NewSrtm(client *http.Client) (*Srtm, error) {
	if client == nil {
		client = http.DefaultClient
	}
	s, err := geoelevations.NewSrtm(client)
	if err != nil {
		return nil, fmt.Errorf("creating srtm client: %w", err)
	}
	return &Srtm{client: client, srtm: s}, nil
}

func (s *Srtm) Elevation(lat, lon float64) (float64, error) {
	return s.srtm.GetElevation(s.client, lat, lon)
}
