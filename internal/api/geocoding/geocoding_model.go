package geocoding

import (
	"fmt"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// Bounds restricts a forward lookup to a box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

func (b Bounds) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: bounds out of range", types.ErrInvalidGeocode)
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: bounds min must be below max", types.ErrInvalidGeocode)
	}
	return nil
}

// viewbox renders the Nominatim viewbox parameter: left,top,right,bottom.
func (b Bounds) viewbox() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MaxLat, b.MaxLon, b.MinLat)
}

type BatchRequest struct {
	Addresses []string `json:"addresses"`
}

// BatchResult is the outcome of one address of a batch. Exactly one of
// Location and Error is set.
type BatchResult struct {
	Address  string             `json:"address"`
	Location *types.GeoLocation `json:"location,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// place is one entry of a Nominatim jsonv2 response.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}
