// Package assets reads and writes the published catalog snapshot. The live
// dataset is a single semi-structured text document of three named array
// literals consumed by the storefront map; parsing that format defensively
// is isolated here so the reconciler only ever sees typed collections.
package assets

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/locations"
)

// AssetKey is the storefront path of the published document.
const AssetKey = "assets/locations-data.js"

var (
	storeLocationsRe  = regexp.MustCompile(`(?s)var storeLocations = (\[.*?\]);`)
	manualLocationsRe = regexp.MustCompile(`(?s)var manualLocations = (\[.*?\]);`)
	skusRe            = regexp.MustCompile(`(?s)var skus = (\[.*?\]);`)
)

// ParseDocument extracts the catalog from the published document. Malformed
// or partial content yields an empty catalog rather than an error: a
// damaged asset must not wedge the pass, it just means rebuilding from
// scratch.
func ParseDocument(content string) locations.Catalog {
	storeMatch := storeLocationsRe.FindStringSubmatch(content)
	manualMatch := manualLocationsRe.FindStringSubmatch(content)
	skusMatch := skusRe.FindStringSubmatch(content)

	if storeMatch == nil || manualMatch == nil || skusMatch == nil {
		return locations.Catalog{}
	}

	var catalog locations.Catalog
	if err := json.Unmarshal([]byte(storeMatch[1]), &catalog.StoreLocations); err != nil {
		return locations.Catalog{}
	}
	if err := json.Unmarshal([]byte(manualMatch[1]), &catalog.ManualLocations); err != nil {
		return locations.Catalog{}
	}
	if err := json.Unmarshal([]byte(skusMatch[1]), &catalog.SKUs); err != nil {
		return locations.Catalog{}
	}

	return catalog
}

// SerializeDocument renders the catalog back into the published document
// format: manual locations, then the merged store locations, then the SKU
// universe.
func SerializeDocument(catalog locations.Catalog) (string, error) {
	manual, err := marshalArray(catalog.ManualLocations)
	if err != nil {
		return "", errors.WrapParse("document", "manualLocations", err)
	}
	store, err := marshalArray(catalog.StoreLocations)
	if err != nil {
		return "", errors.WrapParse("document", "storeLocations", err)
	}
	skus, err := marshalSKUs(catalog.SKUs)
	if err != nil {
		return "", errors.WrapParse("document", "skus", err)
	}

	return fmt.Sprintf("var manualLocations = %s;\nvar storeLocations = %s;\nvar skus = %s;",
		manual, store, skus), nil
}

func marshalArray(locs []locations.Location) (string, error) {
	if locs == nil {
		locs = []locations.Location{}
	}
	data, err := json.MarshalIndent(locs, "", "  ")
	return string(data), err
}

func marshalSKUs(skus []string) (string, error) {
	if skus == nil {
		skus = []string{}
	}
	data, err := json.MarshalIndent(skus, "", "  ")
	return string(data), err
}
