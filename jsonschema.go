package formstate

import (
	"github.com/reoring/formstate/jsonschema"
	"github.com/reoring/formstate/rules"
)

// JSONSchema exports the schema as a JSON Schema document. Rules with a JSON
// Schema counterpart are mapped onto keywords; custom and entity rules have
// none and are omitted.
func (s *Schema) JSONSchema() (*jsonschema.Schema, error) {
	out := s.objectJSONSchema()
	out.Schema = jsonschema.Draft
	return out, nil
}

func (s *Schema) objectJSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{Type: "object", Properties: make(map[string]*jsonschema.Schema, len(s.keys))}
	for _, k := range s.keys {
		switch n := s.nodes[k].(type) {
		case *FieldSchema:
			prop, required := fieldJSONSchema(n)
			out.Properties[k] = prop
			if required {
				out.Required = append(out.Required, k)
			}
		case *ListSchema:
			prop := &jsonschema.Schema{Type: "array", Items: n.Item.objectJSONSchema()}
			applyArrayBounds(prop, n.Rules)
			out.Properties[k] = prop
		}
	}
	return out
}

func fieldJSONSchema(fs *FieldSchema) (*jsonschema.Schema, bool) {
	prop := &jsonschema.Schema{}
	if fs.Type == FieldOptions {
		prop.Type = "array"
		applyArrayBounds(prop, fs.Rules)
	}
	required := false
	for _, ri := range fs.Rules.Rules() {
		switch ri.Name {
		case "required":
			required = true
		case "requiredIf":
			if b, _ := ri.Params["required"].(bool); b {
				required = true
			}
		case "min":
			prop.Minimum = jsonschema.Float(paramFloat(ri.Params["min"]))
			setType(prop, "number")
		case "max":
			prop.Maximum = jsonschema.Float(paramFloat(ri.Params["max"]))
			setType(prop, "number")
		case "isWholeNumber":
			prop.Type = "integer"
		case "minLength":
			prop.MinLength = jsonschema.Int(int(paramFloat(ri.Params["min"])))
			setType(prop, "string")
		case "maxLength":
			prop.MaxLength = jsonschema.Int(int(paramFloat(ri.Params["max"])))
			setType(prop, "string")
		case "regex":
			prop.Pattern, _ = ri.Params["pattern"].(string)
			setType(prop, "string")
		case "validEmailAddress":
			prop.Format = "email"
			setType(prop, "string")
		case "minDate", "maxDate":
			prop.Format = "date"
			setType(prop, "string")
		case "minTime", "maxTime":
			prop.Format = "time"
			setType(prop, "string")
		}
	}
	return prop, required
}

func applyArrayBounds(prop *jsonschema.Schema, chain *rules.Chain) {
	for _, ri := range chain.Rules() {
		switch ri.Name {
		case "minArrayOptions":
			prop.MinItems = jsonschema.Int(int(paramFloat(ri.Params["min"])))
		case "maxArrayOptions":
			prop.MaxItems = jsonschema.Int(int(paramFloat(ri.Params["max"])))
		}
	}
}

// setType assigns t unless a type is already known; "integer" stays.
func setType(prop *jsonschema.Schema, t string) {
	if prop.Type == "" {
		prop.Type = t
	}
}

func paramFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
