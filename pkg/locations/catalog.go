package locations

// Catalog is the published dataset: the snapshot read at the start of a
// reconciliation pass and written back at the end. StoreLocations holds the
// merged export (manual entries first), ManualLocations the operator-curated
// subset, and SKUs the known SKU universe.
type Catalog struct {
	StoreLocations  []Location `json:"store_locations" yaml:"store_locations"`
	ManualLocations []Location `json:"manual_locations" yaml:"manual_locations"`
	SKUs            []string   `json:"skus" yaml:"skus"`
}

// Empty reports whether the catalog carries no data at all.
func (c *Catalog) Empty() bool {
	return len(c.StoreLocations) == 0 && len(c.ManualLocations) == 0 && len(c.SKUs) == 0
}

// LocationByID returns the exported location with the given id, if any.
func (c *Catalog) LocationByID(id string) (Location, bool) {
	for _, loc := range c.StoreLocations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

// UniqueSKUs returns the union of the given SKU slices, preserving
// first-seen order and dropping empty strings. The exported SKU universe is
// computed with the prior universe first so it never shrinks within a pass.
func UniqueSKUs(sets ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range sets {
		for _, sku := range set {
			if sku == "" {
				continue
			}
			if _, ok := seen[sku]; ok {
				continue
			}
			seen[sku] = struct{}{}
			out = append(out, sku)
		}
	}
	return out
}
