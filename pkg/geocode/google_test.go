package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockistmap/stockistmap/pkg/locations"
)

func newStubResolver(t *testing.T, handler http.HandlerFunc) *GoogleResolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGoogleResolver("test-key",
		WithHTTPClient(resty.New().SetBaseURL(server.URL)))
}

func TestResolveReturnsFirstResult(t *testing.T) {
	resolver := newStubResolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1 Main St, Springfield, IL 62701, US", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"geometry": {"location": {"lat": 39.8, "lng": -89.65}}},
				{"geometry": {"location": {"lat": 0, "lng": 0}}}
			]
		}`))
	})

	coords := resolver.Resolve(context.Background(), "1 Main St, Springfield, IL 62701, US")
	require.NotNil(t, coords)
	assert.InDelta(t, 39.8, coords.Lat, 0.001)
	assert.InDelta(t, -89.65, coords.Lng, 0.001)
}

func TestResolveZeroResultsIsNil(t *testing.T) {
	resolver := newStubResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	assert.Nil(t, resolver.Resolve(context.Background(), "nowhere at all"))
}

func TestResolveServerErrorIsNil(t *testing.T) {
	resolver := newStubResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Nil(t, resolver.Resolve(context.Background(), "1 Main St"),
		"provider failures degrade to nil, never an error")
}

func TestResolverFuncAdapter(t *testing.T) {
	var called string
	f := ResolverFunc(func(_ context.Context, address string) *locations.Coordinates {
		called = address
		return nil
	})

	assert.Nil(t, f.Resolve(context.Background(), "somewhere"))
	assert.Equal(t, "somewhere", called)
}
