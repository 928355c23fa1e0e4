package assets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockistmap/stockistmap/pkg/errors"
)

func TestFileStoreMissingFileIsEmptyCatalog(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.js"))

	catalog, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, catalog.Empty())
}

func TestFileStoreDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations-data.js")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, sampleCatalog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "var storeLocations = ")

	catalog, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), catalog)
}

func TestFileStoreYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, sampleCatalog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "store_locations:")

	catalog, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), catalog)
}

func TestFileStoreUnparseableYAMLDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	catalog, err := NewFileStore(path).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, catalog.Empty())
}

// themeServer fakes the platform's theme and asset endpoints.
func themeServer(t *testing.T, assetContent string, assetStatus int) (*httptest.Server, *string) {
	t.Helper()
	var written string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/themes.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"themes":[{"id":77,"role":"unpublished"},{"id":42,"role":"main"}]}`))
		case strings.HasPrefix(r.URL.Path, "/themes/42/assets.json") && r.Method == http.MethodGet:
			if assetStatus != http.StatusOK {
				w.WriteHeader(assetStatus)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			body, err := jsonAsset(assetContent)
			require.NoError(t, err)
			w.Write(body)
		case strings.HasPrefix(r.URL.Path, "/themes/42/assets.json") && r.Method == http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			written = string(body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"asset":{"key":"assets/locations-data.js"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &written
}

func jsonAsset(value string) ([]byte, error) {
	type asset struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	payload := struct {
		Asset asset `json:"asset"`
	}{Asset: asset{Key: AssetKey, Value: value}}
	return json.Marshal(payload)
}

func newThemeStoreFor(server *httptest.Server) *ThemeStore {
	return NewThemeStore("testshop", "key", "pass",
		WithThemeHTTPClient(resty.New().SetBaseURL(server.URL)))
}

func TestThemeStoreReadParsesPublishedAsset(t *testing.T) {
	content, err := SerializeDocument(sampleCatalog())
	require.NoError(t, err)
	server, _ := themeServer(t, content, http.StatusOK)

	catalog, err := newThemeStoreFor(server).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog(), catalog)
}

func TestThemeStoreReadMissingAssetIsEmpty(t *testing.T) {
	server, _ := themeServer(t, "", http.StatusNotFound)

	catalog, err := newThemeStoreFor(server).Read(context.Background())
	require.NoError(t, err, "a not-yet-created asset is a first run, not a failure")
	assert.True(t, catalog.Empty())
}

func TestThemeStoreReadServerErrorIsFatal(t *testing.T) {
	server, _ := themeServer(t, "", http.StatusInternalServerError)

	_, err := newThemeStoreFor(server).Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsExternalService(err))
}

func TestThemeStoreWriteUploadsDocument(t *testing.T) {
	server, written := themeServer(t, "", http.StatusOK)

	err := newThemeStoreFor(server).Write(context.Background(), sampleCatalog())
	require.NoError(t, err)

	assert.Contains(t, *written, `"key":"assets/locations-data.js"`)
	assert.Contains(t, *written, "var storeLocations = ")
	assert.Contains(t, *written, "application/javascript")
}

func TestThemeStoreRequiresMainTheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"themes":[{"id":77,"role":"unpublished"}]}`))
	}))
	t.Cleanup(server.Close)

	_, err := newThemeStoreFor(server).Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
