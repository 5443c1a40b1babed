// Package catalog extracts per-part material data from the external catalog
// file. The producer's JSON layout is not stable, so parts are found by a
// recursive scan for objects carrying an integer partId rather than by a
// fixed schema.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is the material metadata for one part.
type Entry struct {
	Material          string
	ThicknessMm       *float64
	Tolerance         string
	Ra                string
	QuantityPieces    int
	FileNameOnPage    string
	ProductionRemarks string
}

// Catalog maps part id to its entry.
type Catalog map[int]Entry

// Material returns the material for a part id, or "" when unknown.
func (c Catalog) Material(partID int) string {
	return c[partID].Material
}

// Load parses the catalog file at path.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	out := Catalog{}
	scan(root, out)
	return out, nil
}

// scan walks arbitrary JSON collecting every object with an integer partId.
func scan(node any, out Catalog) {
	switch v := node.(type) {
	case map[string]any:
		if id, ok := intField(v, "partId"); ok {
			out[id] = entryFrom(v)
		}
		for _, child := range v {
			scan(child, out)
		}
	case []any:
		for _, child := range v {
			scan(child, out)
		}
	}
}

func entryFrom(obj map[string]any) Entry {
	e := Entry{
		Material:          stringField(obj, "material"),
		Tolerance:         stringField(obj, "tolerance"),
		Ra:                stringField(obj, "ra"),
		FileNameOnPage:    stringField(obj, "fileNameOnPage"),
		ProductionRemarks: stringField(obj, "productionRemarks"),
	}
	if qty, ok := intField(obj, "quantityPieces"); ok {
		e.QuantityPieces = qty
	}
	if raw, ok := obj["thicknessMm"].(float64); ok {
		e.ThicknessMm = &raw
	}
	return e
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// intField accepts only whole numbers; a fractional partId is a producer bug,
// not a part.
func intField(obj map[string]any, key string) (int, bool) {
	f, ok := obj[key].(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
