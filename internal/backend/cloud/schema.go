package cloud

// unsupportedKeywords lists the JSON-schema keywords the cloud API's
// tool-calling validator rejects. They are stripped recursively.
var unsupportedKeywords = map[string]bool{
	// Schema metadata.
	"$schema": true, "$id": true, "$ref": true, "$defs": true,
	"definitions": true, "$comment": true,

	// Validation keywords.
	"exclusiveMinimum": true, "exclusiveMaximum": true,
	"minimum": true, "maximum": true,
	"minLength": true, "maxLength": true, "pattern": true, "format": true,
	"minItems": true, "maxItems": true, "uniqueItems": true,
	"minContains": true, "maxContains": true,
	"minProperties": true, "maxProperties": true,

	// Composition and conditional logic.
	"additionalItems": true, "patternProperties": true, "dependencies": true,
	"dependentRequired": true, "dependentSchemas": true,
	"propertyNames": true, "const": true,
	"contentMediaType": true, "contentEncoding": true, "contentSchema": true,
	"if": true, "then": true, "else": true,
	"allOf": true, "anyOf": true, "oneOf": true, "not": true,

	// Everything else the validator chokes on.
	"title": true, "examples": true, "default": true,
	"readOnly": true, "writeOnly": true, "deprecated": true,
	"additionalProperties": true, "unevaluatedItems": true,
	"unevaluatedProperties": true,
}

// SanitizeSchema returns a copy of the schema with every unsupported
// keyword removed, recursing through properties, items, arrays, and
// nested objects. Sanitizing an already-sanitized schema is a no-op.
func SanitizeSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}

	result := make(map[string]any, len(schema))
	for key, value := range schema {
		if unsupportedKeywords[key] {
			continue
		}

		switch key {
		case "properties":
			if props, ok := value.(map[string]any); ok {
				cleaned := make(map[string]any, len(props))
				for name, prop := range props {
					cleaned[name] = sanitizeValue(prop)
				}
				result[key] = cleaned
				continue
			}
		case "items":
			if items, ok := value.(map[string]any); ok {
				result[key] = SanitizeSchema(items)
				continue
			}
		}

		result[key] = sanitizeValue(value)
	}

	return result
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return SanitizeSchema(v)
	case []any:
		cleaned := make([]any, len(v))
		for i, item := range v {
			cleaned[i] = sanitizeValue(item)
		}
		return cleaned
	default:
		return value
	}
}
