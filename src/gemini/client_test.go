package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"
	"google.golang.org/genai"
)

func TestContentConfig(t *testing.T) {
	cfg := contentConfig(aisdk.DefaultGenerationConfig("gemini-2.5-flash", "be helpful"))

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.6, *cfg.Temperature, 1e-6)
	assert.InDelta(t, 0.8, *cfg.TopP, 1e-6)
	assert.InDelta(t, 30, *cfg.TopK, 1e-6)
	assert.Equal(t, []string{"End of response", "STOP"}, cfg.StopSequences)
	require.Len(t, cfg.SafetySettings, 1)
	assert.Equal(t, genai.HarmCategorySexuallyExplicit, cfg.SafetySettings[0].Category)
	assert.Equal(t, genai.HarmBlockThresholdBlockNone, cfg.SafetySettings[0].Threshold)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be helpful", cfg.SystemInstruction.Parts[0].Text)

	bare := contentConfig(aisdk.GenerationConfig{Model: "m"})
	assert.Nil(t, bare.Temperature)
	assert.Nil(t, bare.SystemInstruction)
}

func TestToContents(t *testing.T) {
	contents := toContents([]aisdk.Turn{
		{Role: aisdk.RoleUser, Text: "hi"},
		{Role: aisdk.RoleModel, Text: "hello"},
	})
	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)
}

func TestToSchema(t *testing.T) {
	str := jsonschema.SimpleType("string")
	obj := jsonschema.SimpleType("object")
	arr := jsonschema.SimpleType("array")
	desc := "prompt icon"
	icon := &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: &str}, Description: &desc, Enum: []interface{}{"CODE", "ART"}}
	item := &jsonschema.Schema{
		Type:       &jsonschema.Type{SimpleTypes: &obj},
		Properties: map[string]jsonschema.SchemaOrBool{"icon": {TypeObject: icon}},
		Required:   []string{"icon"},
	}
	list := &jsonschema.Schema{
		Type:  &jsonschema.Type{SimpleTypes: &arr},
		Items: &jsonschema.Items{SchemaOrBool: &jsonschema.SchemaOrBool{TypeObject: item}},
	}

	got := toSchema(list)
	assert.Equal(t, genai.TypeArray, got.Type)
	require.NotNil(t, got.Items)
	assert.Equal(t, genai.TypeObject, got.Items.Type)
	assert.Equal(t, []string{"icon"}, got.Items.Required)
	iconSchema := got.Items.Properties["icon"]
	require.NotNil(t, iconSchema)
	assert.Equal(t, genai.TypeString, iconSchema.Type)
	assert.Equal(t, []string{"CODE", "ART"}, iconSchema.Enum)
	assert.Equal(t, "prompt icon", iconSchema.Description)

	assert.Nil(t, toSchema(nil))
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Sorting in Python"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()},
		aisdk.DefaultGenerationConfig("gemini-2.5-flash", ""))
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), &aisdk.GenerateRequest{Prompt: "title please", SystemInstruction: "title only"})
	require.NoError(t, err)
	assert.Equal(t, "Sorting in Python", got)
	assert.Contains(t, body, "contents")
	assert.Contains(t, body, "systemInstruction")
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "k"}, aisdk.GenerationConfig{})
	assert.Error(t, err)
}
