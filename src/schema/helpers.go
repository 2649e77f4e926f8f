package schema

import (
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// CreateStringSchema creates a JSON schema for a string field
func CreateStringSchema(description string) *jsonschema.Schema {
	strType := jsonschema.SimpleType("string")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &strType},
		Description: &description,
	}
}

// CreateStringSchemaEnum creates a JSON schema for a string field with enum values
func CreateStringSchemaEnum(description string, enumValues []string) *jsonschema.Schema {
	s := CreateStringSchema(description)
	s.Enum = make([]interface{}, len(enumValues))
	for i, v := range enumValues {
		s.Enum[i] = v
	}
	return s
}

// CreateObjectSchema creates a JSON schema for an object with properties and required fields
func CreateObjectSchema(properties map[string]*jsonschema.Schema, required []string) *jsonschema.Schema {
	schemaProps := make(map[string]jsonschema.SchemaOrBool)
	for name, prop := range properties {
		schemaProps[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}

	objType := jsonschema.SimpleType("object")
	return &jsonschema.Schema{
		Type:       &jsonschema.Type{SimpleTypes: &objType},
		Properties: schemaProps,
		Required:   required,
	}
}

// CreateArraySchema creates a JSON schema for an array of items
func CreateArraySchema(description string, items *jsonschema.Schema) *jsonschema.Schema {
	arrType := jsonschema.SimpleType("array")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &arrType},
		Description: &description,
		Items: &jsonschema.Items{
			SchemaOrBool: &jsonschema.SchemaOrBool{TypeObject: items},
		},
	}
}

// Describe renders a schema as an indented outline for inclusion in a prompt.
func Describe(schema *jsonschema.Schema) string {
	return describe(schema, 0)
}

func describe(schema *jsonschema.Schema, indentLevel int) string {
	if schema == nil {
		return "unknown"
	}

	indent := strings.Repeat("  ", indentLevel)
	parts := []string{}

	if schema.Description != nil && *schema.Description != "" {
		parts = append(parts, fmt.Sprintf("%s# %s", indent, *schema.Description))
	}

	line := indent + typeName(schema)
	if schema.Items == nil && len(schema.Properties) > 0 && len(schema.Required) > 0 {
		line += fmt.Sprintf(" (required: %s)", strings.Join(schema.Required, ", "))
	}
	parts = append(parts, line)

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := schema.Properties[name].TypeObject
		if prop == nil {
			continue
		}
		// "name: type # description" on one line
		line := fmt.Sprintf("%s  %s: %s", indent, name, typeName(prop))
		if prop.Description != nil && *prop.Description != "" {
			line += fmt.Sprintf(" # %s", *prop.Description)
		}
		parts = append(parts, line)
	}

	if schema.Items != nil && schema.Items.SchemaOrBool != nil && schema.Items.SchemaOrBool.TypeObject != nil {
		items := describe(schema.Items.SchemaOrBool.TypeObject, indentLevel+1)
		parts = append(parts, fmt.Sprintf("%s  items: %s", indent, strings.TrimSpace(items)))
	}

	return strings.Join(parts, "\n")
}

// typeName returns the schema's type with any enum values appended.
func typeName(schema *jsonschema.Schema) string {
	name := "object"
	if schema.Type != nil {
		if schema.Type.SimpleTypes != nil {
			name = string(*schema.Type.SimpleTypes)
		} else if len(schema.Type.SliceOfSimpleTypeValues) > 0 {
			name = string(schema.Type.SliceOfSimpleTypeValues[0])
		}
	}
	if len(schema.Enum) > 0 {
		values := make([]string, 0, len(schema.Enum))
		for _, e := range schema.Enum {
			values = append(values, fmt.Sprintf(`"%v"`, e))
		}
		name += fmt.Sprintf(" (enum: %s)", strings.Join(values, " | "))
	}
	return name
}
