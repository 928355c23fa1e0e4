package geocode

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/logging"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleResolver resolves addresses through the Google Geocoding API.
type GoogleResolver struct {
	client *resty.Client
	apiKey string
	logger *zerolog.Logger
}

// GoogleOption configures a GoogleResolver.
type GoogleOption func(*GoogleResolver)

// WithHTTPClient overrides the HTTP client, used by tests to point the
// resolver at a stub server.
func WithHTTPClient(client *resty.Client) GoogleOption {
	return func(r *GoogleResolver) {
		r.client = client
	}
}

// WithLogger overrides the resolver's logger.
func WithLogger(logger *zerolog.Logger) GoogleOption {
	return func(r *GoogleResolver) {
		r.logger = logger
	}
}

// NewGoogleResolver creates a resolver backed by the Google Geocoding API.
func NewGoogleResolver(apiKey string, opts ...GoogleOption) *GoogleResolver {
	r := &GoogleResolver{
		client: resty.New().
			SetBaseURL(googleGeocodeURL).
			SetTimeout(15 * time.Second),
		apiKey: apiKey,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// geocodeResponse mirrors the subset of the Google Geocoding payload we use.
type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Resolve looks up the address and returns its coordinates, or nil when the
// provider fails or finds no match. Errors never propagate to the caller.
func (r *GoogleResolver) Resolve(ctx context.Context, address string) *locations.Coordinates {
	var payload geocodeResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("address", address).
		SetQueryParam("key", r.apiKey).
		SetResult(&payload).
		Get("")
	if err != nil {
		r.logger.Error().Err(err).Str("address", address).Msg("Geocoding request failed")
		return nil
	}
	if resp.IsError() {
		r.logger.Error().
			Int("status", resp.StatusCode()).
			Str("address", address).
			Msg("Geocoding request rejected")
		return nil
	}
	if len(payload.Results) == 0 {
		r.logger.Debug().Str("address", address).Str("api_status", payload.Status).
			Msg("No geocoding results")
		return nil
	}

	loc := payload.Results[0].Geometry.Location
	return &locations.Coordinates{Lat: loc.Lat, Lng: loc.Lng}
}
