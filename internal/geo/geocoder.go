package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoResult is returned when the geocoder cannot resolve an address
var ErrNoResult = errors.New("address could not be geocoded")

// Result is a resolved address
type Result struct {
	FormattedAddress string      `json:"formatted_address"`
	Location         Coordinates `json:"location"`
}

// Geocoder resolves free-text addresses
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// WithDefaultRegion appends region to address when the address has no comma
func WithDefaultRegion(address, region string) string {
	address = strings.TrimSpace(address)
	if region == "" || strings.Contains(address, ",") {
		return address
	}
	return address + ", " + region
}

// GoogleGeocoder calls the Google Geocoding JSON API
type GoogleGeocoder struct {
	baseURL       string
	apiKey        string
	defaultRegion string
	client        *http.Client
}

// NewGoogleGeocoder creates a geocoder for baseURL
func NewGoogleGeocoder(baseURL, apiKey, defaultRegion string, timeout time.Duration) *GoogleGeocoder {
	return &GoogleGeocoder{
		baseURL:       baseURL,
		apiKey:        apiKey,
		defaultRegion: defaultRegion,
		client:        &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves address, appending the default region when needed
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	query := WithDefaultRegion(address, g.defaultRegion)
	if query == "" {
		return nil, ErrNoResult
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResult
	default:
		return nil, fmt.Errorf("geocoder status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return nil, ErrNoResult
	}

	first := body.Results[0]
	result := &Result{
		FormattedAddress: first.FormattedAddress,
		Location:         Coordinates{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng},
	}
	if result.FormattedAddress == "" || !result.Location.Valid() {
		return nil, ErrNoResult
	}
	return result, nil
}
