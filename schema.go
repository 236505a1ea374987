package relay

import (
	"encoding/json"
	"reflect"
	"strings"
)

// SchemaBuilder provides a fluent API for constructing JSON Schema objects.
// Use NewSchema to author a schema by hand, or SchemaFor[T] to derive a
// draft from a struct type. Derivation is an authoring aid: the produced
// schema is what gets registered and validated against, so review it.
type SchemaBuilder struct {
	properties    map[string]*propertyDef
	required      []string
	propertyOrder []string
}

// propertyDef holds the definition of a single property.
type propertyDef struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	Items       *propertyDef   `json:"items,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Required    []string       `json:"required,omitempty"`
}

// NewSchema creates an empty SchemaBuilder for explicit authoring.
func NewSchema() *SchemaBuilder {
	return &SchemaBuilder{
		properties:    make(map[string]*propertyDef),
		propertyOrder: make([]string, 0),
	}
}

// SchemaFor creates a SchemaBuilder by reflecting on the given struct type.
// Field names are taken from json tags, types are mapped to JSON Schema types,
// and descriptions from `desc` tags.
func SchemaFor[T any]() *SchemaBuilder {
	var zero T
	t := reflect.TypeOf(zero)

	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return NewSchema()
	}

	return buildFromStruct(t)
}

func buildFromStruct(t reflect.Type) *SchemaBuilder {
	sb := NewSchema()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop := typeToPropertyDef(field.Type)
		if d := field.Tag.Get("desc"); d != "" {
			prop.Description = d
		}
		sb.properties[name] = prop
		sb.propertyOrder = append(sb.propertyOrder, name)

		// A field without omitempty is required in the draft.
		if !strings.Contains(jsonTag, "omitempty") {
			sb.required = append(sb.required, name)
		}
	}

	return sb
}

func typeToPropertyDef(t reflect.Type) *propertyDef {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &propertyDef{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &propertyDef{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &propertyDef{Type: "number"}

	case reflect.Bool:
		return &propertyDef{Type: "boolean"}

	case reflect.Slice, reflect.Array:
		items := typeToPropertyDef(t.Elem())
		return &propertyDef{Type: "array", Items: items}

	case reflect.Struct:
		nested := buildFromStruct(t)
		props := make(map[string]any)
		for _, name := range nested.propertyOrder {
			props[name] = nested.properties[name].toMap()
		}
		prop := &propertyDef{Type: "object", Properties: props}
		if len(nested.required) > 0 {
			prop.Required = nested.required
		}
		return prop

	case reflect.Map:
		// Maps become objects with no defined properties
		return &propertyDef{Type: "object"}

	default:
		return &propertyDef{Type: "string"}
	}
}

func (s *SchemaBuilder) add(name, typ, description string) *SchemaBuilder {
	if _, ok := s.properties[name]; !ok {
		s.propertyOrder = append(s.propertyOrder, name)
	}
	s.properties[name] = &propertyDef{Type: typ, Description: description}
	return s
}

// Str adds a string property.
func (s *SchemaBuilder) Str(name, description string) *SchemaBuilder {
	return s.add(name, "string", description)
}

// Int adds an integer property.
func (s *SchemaBuilder) Int(name, description string) *SchemaBuilder {
	return s.add(name, "integer", description)
}

// Num adds a number property.
func (s *SchemaBuilder) Num(name, description string) *SchemaBuilder {
	return s.add(name, "number", description)
}

// Bool adds a boolean property.
func (s *SchemaBuilder) Bool(name, description string) *SchemaBuilder {
	return s.add(name, "boolean", description)
}

// Desc sets the description for a field.
func (s *SchemaBuilder) Desc(field, description string) *SchemaBuilder {
	if prop, ok := s.properties[field]; ok {
		prop.Description = description
	}
	return s
}

// Required marks the specified fields as required.
func (s *SchemaBuilder) Required(fields ...string) *SchemaBuilder {
	for _, field := range fields {
		if _, ok := s.properties[field]; !ok {
			continue
		}
		found := false
		for _, r := range s.required {
			if r == field {
				found = true
				break
			}
		}
		if !found {
			s.required = append(s.required, field)
		}
	}
	return s
}

// Optional removes fields from the required set, for trimming a derived draft.
func (s *SchemaBuilder) Optional(fields ...string) *SchemaBuilder {
	for _, field := range fields {
		for i, r := range s.required {
			if r == field {
				s.required = append(s.required[:i], s.required[i+1:]...)
				break
			}
		}
	}
	return s
}

// Enum sets the allowed values for a string field.
func (s *SchemaBuilder) Enum(field string, values ...string) *SchemaBuilder {
	if prop, ok := s.properties[field]; ok {
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}
	return s
}

// Build generates the JSON Schema as json.RawMessage.
func (s *SchemaBuilder) Build() json.RawMessage {
	schema := s.toMap()
	data, err := json.Marshal(schema)
	if err != nil {
		// This should never happen with valid Go types
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}

func (s *SchemaBuilder) toMap() map[string]any {
	result := map[string]any{
		"type": "object",
	}

	if len(s.properties) > 0 {
		props := make(map[string]any)
		for _, name := range s.propertyOrder {
			props[name] = s.properties[name].toMap()
		}
		result["properties"] = props
	} else {
		result["properties"] = map[string]any{}
	}

	if len(s.required) > 0 {
		result["required"] = s.required
	}

	return result
}

func (p *propertyDef) toMap() map[string]any {
	result := map[string]any{
		"type": p.Type,
	}

	if p.Description != "" {
		result["description"] = p.Description
	}

	if len(p.Enum) > 0 {
		result["enum"] = p.Enum
	}

	if p.Items != nil {
		result["items"] = p.Items.toMap()
	}

	if p.Properties != nil {
		result["properties"] = p.Properties
	}

	if len(p.Required) > 0 {
		result["required"] = p.Required
	}

	return result
}
