// Package validation checks raw JSON request bodies against the shapes the wizard accepts
// before they are decoded into patches.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

func text(maxLength int) map[string]interface{} {
	return map[string]interface{}{"type": "string", "maxLength": maxLength}
}

var boolean = map[string]interface{}{"type": "boolean"}

// FormPatchSchema accepts any subset of the scalar form fields. File lists and dishes
// have their own endpoints.
var FormPatchSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"restaurantName":   text(200),
		"submitterName":    text(200),
		"contactEmail":     text(254),
		"contactPhone":     text(40),
		"isNewBusiness":    boolean,
		"isLead":           boolean,
		"itemName":         text(200),
		"itemType":         text(100),
		"description":      text(4000),
		"specialNotes":     text(4000),
		"selectedCategory": text(100),
		"selectedStyle":    text(100),
		"styleComments":    text(4000),
		"customStyle": map[string]interface{}{
			"oneOf": []interface{}{
				map[string]interface{}{"type": "null"},
				text(500),
				map[string]interface{}{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []interface{}{"name"},
					"properties": map[string]interface{}{
						"name":        text(200),
						"description": text(2000),
					},
				},
			},
		},
	},
}

var DishPatchSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"itemType":         text(100),
		"isCustomItemType": boolean,
		"customItemType":   text(100),
		"itemName":         text(200),
		"description":      text(4000),
		"specialNotes":     text(4000),
		"qualityConfirmed": boolean,
	},
}

// Check validates body against schema. It returns the violations keyed by field, or an
// error when body is not JSON at all.
func Check(schema map[string]interface{}, body []byte) (map[string]string, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	fields := make(map[string]string, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "additional_property_not_allowed" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		if _, seen := fields[field]; !seen {
			fields[field] = desc.Description()
		}
	}
	return fields, nil
}
