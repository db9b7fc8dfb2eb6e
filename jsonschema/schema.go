package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Only the keywords form rules can map onto are modeled.
type Schema struct {
	// Core
	Schema      string `json:"$schema,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
}

// Draft is the dialect URI stamped on exported root schemas.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Int returns a pointer to n, for the optional integer keywords.
func Int(n int) *int { return &n }

// Float returns a pointer to f, for the optional number keywords.
func Float(f float64) *float64 { return &f }
