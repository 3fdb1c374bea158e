package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// ValidateAttributes checks the shape of a product attributes document.
// The schema is open: only the dimensions and weight sub-objects have
// required fields, everything else passes through untouched. A nil
// document is valid. The function is a pure predicate with no side effects.
func ValidateAttributes(doc interface{}) error {
	var attrs map[string]interface{}
	switch v := doc.(type) {
	case nil:
		return nil
	case datatypes.JSONMap:
		attrs = v
	case map[string]interface{}:
		attrs = v
	default:
		return fmt.Errorf("attributes must be a JSON object")
	}

	if raw, ok := attrs["dimensions"]; ok {
		dims, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("dimensions must be an object")
		}
		for _, field := range []string{"width", "height", "depth", "unit"} {
			if _, ok := dims[field]; !ok {
				return fmt.Errorf("dimensions missing required field: %s", field)
			}
		}
	}

	if raw, ok := attrs["weight"]; ok {
		weight, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("weight must be an object")
		}
		if _, ok := weight["value"]; !ok {
			return fmt.Errorf("weight must have 'value' and 'unit' fields")
		}
		if _, ok := weight["unit"]; !ok {
			return fmt.Errorf("weight must have 'value' and 'unit' fields")
		}
	}

	return nil
}
