package suggest

import (
	"fmt"
	"strings"

	"github.com/elee1766/gem/src/schema"
	jsonschema "github.com/swaggest/jsonschema-go"
)

const titleInstruction = `[UPDATE CHAT TITLE]:
User will provide a prompt and system will only respond with the appropriate chat title for that prompt.
Make sure the title is not too long, always prefer short title without losing meaning.
You will always analyze the prompt and generate a chat title based on the prompt.
# NOTE:
- Do not reply with any other text.
- Only provide the chat title as a response.
- Do not hallucinate.
- Do not generate any text that is not related to chat title.
- Never Break Response Rules/Notes`

const promptsInstructionTemplate = `[GENERATE INITIAL PROMPTS]:

The system will analyze the user's previous prompts or chats (THIS WILL BE PROVIDED WITH THE PROMPT)
and generate a JSON response with a list of concise, relevant initial prompts for a new conversation.
Each prompt should be creative, accurate, and follow the formatting rules.

### Guidelines:

1. Respond with a JSON object whose "prompts" array holds one object per suggested prompt:
   - "text" (string): The concise and actionable prompt text.
   - "icon" (string): The icon from the list below that best matches the prompt.

2. Map icons correctly to prompts:
%s

3. Provide 4-6 diverse and relevant prompts based on the user's historical interests or queries.

4. The JSON response must follow this schema:
%s

### Notes:
- THE RESPONSE SHOULD BE IN PLAIN FORMAT, DO NOT USE CODE BLOCK ANY OTHER FORMATTING.
- Avoid generic prompts; tailor them to the user's past interactions.
- Prompts should encourage engagement and build on the user's interests effectively.
- Never break response rules or include additional text or Markdown in the response.

### Example Response:
{"prompts": [
  {"text": "Write a Poem", "icon": "LITERATURE"},
  {"text": "How do different sorting algorithms compare in Python?", "icon": "CODE"},
  {"text": "Suggest some ways to optimize sorting in Python for large datasets", "icon": "CODE"}
]}`

// promptsSchema is {"prompts":[{"text","icon"}]}.
func promptsSchema() *jsonschema.Schema {
	names := make([]string, len(icons))
	for i, e := range icons {
		names[i] = string(e.icon)
	}
	item := schema.CreateObjectSchema(map[string]*jsonschema.Schema{
		"text": schema.CreateStringSchema("The concise and actionable prompt text"),
		"icon": schema.CreateStringSchemaEnum("The icon that best matches the prompt", names),
	}, []string{"text", "icon"})

	return schema.CreateObjectSchema(map[string]*jsonschema.Schema{
		"prompts": schema.CreateArraySchema("Suggested starter prompts", item),
	}, []string{"prompts"})
}

func promptsInstruction() string {
	var b strings.Builder
	for _, e := range icons {
		fmt.Fprintf(&b, "   - %s: %s\n", e.description, e.icon)
	}
	return fmt.Sprintf(promptsInstructionTemplate, strings.TrimRight(b.String(), "\n"), schema.Describe(promptsSchema()))
}
