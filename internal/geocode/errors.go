package geocode

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationPermissionDenied is returned when device location lookups are turned off.
	ErrLocationPermissionDenied = errors.New("location permission denied")
	// ErrNoResults is returned when no geocoder knows the place.
	ErrNoResults = errors.New("no geocoding results")
	// ErrInvalidAddress is returned for queries or coordinates that cannot be geocoded.
	ErrInvalidAddress = errors.New("invalid address")
)

// GeocodingError wraps a failure talking to a geocoder.
type GeocodingError struct {
	Op       string
	Geocoder string
	Err      error
}

func (e *GeocodingError) Error() string {
	if e.Geocoder == "" {
		return fmt.Sprintf("geocoding %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("geocoding %s via %s failed: %v", e.Op, e.Geocoder, e.Err)
}

func (e *GeocodingError) Unwrap() error { return e.Err }
