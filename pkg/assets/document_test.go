package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockistmap/stockistmap/pkg/locations"
)

func sampleCatalog() locations.Catalog {
	return locations.Catalog{
		StoreLocations: []locations.Location{
			{
				ID:          "manual_abc",
				Name:        "Corner Shop",
				Address:     "5 High St, Portland, OR 97201, US",
				Coordinates: &locations.Coordinates{Lat: 45.5, Lng: -122.6},
				SKUs:        []string{"BEAN-01"},
				Status:      locations.StatusActive,
				Source:      locations.SourceManual,
			},
			{
				ID:      "1001",
				Name:    "Wholesale Buyer",
				Address: "9 Dock Rd, Seattle, WA 98101, US",
				SKUs:    []string{"BEAN-01", "BEAN-02"},
				Status:  locations.StatusActive,
				Source:  locations.SourceDerived,
			},
		},
		ManualLocations: []locations.Location{
			{
				ID:      "manual_abc",
				Name:    "Corner Shop",
				Address: "5 High St, Portland, OR 97201, US",
				Status:  locations.StatusActive,
				Source:  locations.SourceManual,
			},
		},
		SKUs: []string{"BEAN-01", "BEAN-02"},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	original := sampleCatalog()

	content, err := SerializeDocument(original)
	require.NoError(t, err)

	parsed := ParseDocument(content)
	assert.Equal(t, original.StoreLocations, parsed.StoreLocations)
	assert.Equal(t, original.ManualLocations, parsed.ManualLocations)
	assert.Equal(t, original.SKUs, parsed.SKUs)
}

func TestSerializeDocumentVariableOrder(t *testing.T) {
	content, err := SerializeDocument(sampleCatalog())
	require.NoError(t, err)

	manual := strings.Index(content, "var manualLocations = ")
	store := strings.Index(content, "var storeLocations = ")
	skus := strings.Index(content, "var skus = ")
	require.NotEqual(t, -1, manual)
	require.NotEqual(t, -1, store)
	require.NotEqual(t, -1, skus)

	assert.Less(t, manual, store)
	assert.Less(t, store, skus)
}

func TestSerializeDocumentEmptyCatalogUsesEmptyArrays(t *testing.T) {
	content, err := SerializeDocument(locations.Catalog{})
	require.NoError(t, err)
	assert.Equal(t, "var manualLocations = [];\nvar storeLocations = [];\nvar skus = [];", content)

	parsed := ParseDocument(content)
	assert.True(t, parsed.Empty())
}

func TestParseDocumentMalformedContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty string", ""},
		{"not the document at all", "<html>service unavailable</html>"},
		{"missing skus variable", `var manualLocations = [];` + "\n" + `var storeLocations = [];`},
		{"invalid json payload", `var manualLocations = [{];` + "\n" + `var storeLocations = [];` + "\n" + `var skus = [];`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := ParseDocument(tt.content)
			assert.True(t, catalog.Empty(), "malformed content degrades to an empty catalog")
		})
	}
}

func TestParseDocumentIgnoresSurroundingContent(t *testing.T) {
	content, err := SerializeDocument(sampleCatalog())
	require.NoError(t, err)

	wrapped := "// generated file, do not edit\n" + content + "\nconsole.log('loaded');\n"
	parsed := ParseDocument(wrapped)
	assert.Len(t, parsed.StoreLocations, 2)
	assert.Equal(t, []string{"BEAN-01", "BEAN-02"}, parsed.SKUs)
}
