package models_test

import (
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestValidateAttributesNil(t *testing.T) {
	assert.NoError(t, models.ValidateAttributes(nil))
}

func TestValidateAttributesOpenSchema(t *testing.T) {
	doc := datatypes.JSONMap{
		"color":    "black",
		"material": "aluminium",
		"tags":     []interface{}{"sale", "new"},
		"count":    float64(3),
	}
	assert.NoError(t, models.ValidateAttributes(doc))
}

func TestValidateAttributesEmptyObject(t *testing.T) {
	assert.NoError(t, models.ValidateAttributes(map[string]interface{}{}))
}

func TestValidateAttributesNonObject(t *testing.T) {
	err := models.ValidateAttributes("not an object")
	assert.EqualError(t, err, "attributes must be a JSON object")
}

func TestValidateAttributesDimensions(t *testing.T) {
	valid := map[string]interface{}{
		"dimensions": map[string]interface{}{
			"width": 10.0, "height": 20.0, "depth": 2.5, "unit": "cm",
		},
	}
	assert.NoError(t, models.ValidateAttributes(valid))

	missingDepth := map[string]interface{}{
		"dimensions": map[string]interface{}{
			"width": 10.0, "height": 20.0, "unit": "cm",
		},
	}
	assert.EqualError(t, models.ValidateAttributes(missingDepth),
		"dimensions missing required field: depth")

	missingUnit := map[string]interface{}{
		"dimensions": map[string]interface{}{
			"width": 10.0, "height": 20.0, "depth": 2.5,
		},
	}
	assert.EqualError(t, models.ValidateAttributes(missingUnit),
		"dimensions missing required field: unit")

	notObject := map[string]interface{}{"dimensions": "10x20x2.5"}
	assert.EqualError(t, models.ValidateAttributes(notObject),
		"dimensions must be an object")
}

func TestValidateAttributesWeight(t *testing.T) {
	valid := map[string]interface{}{
		"weight": map[string]interface{}{"value": 1.2, "unit": "kg"},
	}
	assert.NoError(t, models.ValidateAttributes(valid))

	missingUnit := map[string]interface{}{
		"weight": map[string]interface{}{"value": 1.2},
	}
	assert.EqualError(t, models.ValidateAttributes(missingUnit),
		"weight must have 'value' and 'unit' fields")

	missingValue := map[string]interface{}{
		"weight": map[string]interface{}{"unit": "kg"},
	}
	assert.EqualError(t, models.ValidateAttributes(missingValue),
		"weight must have 'value' and 'unit' fields")

	notObject := map[string]interface{}{"weight": 1.2}
	assert.EqualError(t, models.ValidateAttributes(notObject),
		"weight must be an object")
}
