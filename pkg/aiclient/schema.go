package aiclient

import "encoding/json"

// JSON schema builders for structured model output. Every scenario declares
// a closed response shape with these; all declared properties are required
// so the model cannot omit fields.

// Props maps property names to their schema fragments.
type Props map[string]any

// Object marshals a top-level closed object schema for use as a request
// format. All properties are required.
func Object(props Props) json.RawMessage {
	raw, err := json.Marshal(Nested(props))
	if err != nil {
		// Props contain only maps, strings, and slices; this cannot fail.
		panic(err)
	}
	return raw
}

// Nested builds an object schema fragment for embedding inside another.
func Nested(props Props) map[string]any {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	return map[string]any{
		"type":       "object",
		"properties": map[string]any(props),
		"required":   required,
	}
}

// Array builds an array schema with the given item schema.
func Array(items any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

// Str is a string property.
func Str() map[string]any { return map[string]any{"type": "string"} }

// Num is a floating-point property.
func Num() map[string]any { return map[string]any{"type": "number"} }

// Int is an integer property.
func Int() map[string]any { return map[string]any{"type": "integer"} }

// BBox is the [y_min, x_min, y_max, x_max] normalized box property.
func BBox() map[string]any { return Array(Int()) }
