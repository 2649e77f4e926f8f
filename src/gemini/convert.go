package gemini

import (
	"fmt"

	"github.com/elee1766/gem/src/aisdk"
	jsonschema "github.com/swaggest/jsonschema-go"
	"google.golang.org/genai"
)

// safetySettings relax only the sexually-explicit category; everything else
// keeps the API defaults.
var safetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

func contentConfig(gen aisdk.GenerationConfig) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		StopSequences:  gen.StopSequences,
		SafetySettings: safetySettings,
	}
	if gen.Temperature != nil {
		v := float32(*gen.Temperature)
		cfg.Temperature = &v
	}
	if gen.TopP != nil {
		v := float32(*gen.TopP)
		cfg.TopP = &v
	}
	if gen.TopK != nil {
		v := float32(*gen.TopK)
		cfg.TopK = &v
	}
	if gen.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = int32(*gen.MaxOutputTokens)
	}
	if gen.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(gen.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

func toContents(history []aisdk.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		var role genai.Role
		switch t.Role {
		case aisdk.RoleModel, aisdk.RoleAssistant:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

func toSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	if s.Type != nil && s.Type.SimpleTypes != nil {
		switch string(*s.Type.SimpleTypes) {
		case "object":
			out.Type = genai.TypeObject
		case "array":
			out.Type = genai.TypeArray
		case "string":
			out.Type = genai.TypeString
		case "integer":
			out.Type = genai.TypeInteger
		case "number":
			out.Type = genai.TypeNumber
		case "boolean":
			out.Type = genai.TypeBoolean
		}
	}
	if s.Description != nil {
		out.Description = *s.Description
	}
	for _, e := range s.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(e))
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			if prop.TypeObject != nil {
				out.Properties[name] = toSchema(prop.TypeObject)
			}
		}
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Items != nil && s.Items.SchemaOrBool != nil && s.Items.SchemaOrBool.TypeObject != nil {
		out.Items = toSchema(s.Items.SchemaOrBool.TypeObject)
	}
	return out
}
