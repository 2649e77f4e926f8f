// Package schema builds the small JSON Schema documents sent with structured
// generation requests and renders them as text for prompts.
//
//	prompt := schema.CreateObjectSchema(map[string]*jsonschema.Schema{
//		"text": schema.CreateStringSchema("The prompt text"),
//		"icon": schema.CreateStringSchemaEnum("Icon tag", []string{"CODE", "IDEA"}),
//	}, []string{"text", "icon"})
//	list := schema.CreateArraySchema("Suggested prompts", prompt)
package schema
