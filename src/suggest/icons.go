package suggest

import (
	"encoding/json"
	"strings"
)

// PromptIcon tags a starter prompt with the kind of request it is.
type PromptIcon string

const (
	IconCode          PromptIcon = "CODE"
	IconQuestionMark  PromptIcon = "QUESTION_MARK"
	IconIdea          PromptIcon = "IDEA"
	IconSurprise      PromptIcon = "SURPRISE"
	IconInfo          PromptIcon = "INFO"
	IconWarning       PromptIcon = "WARNING"
	IconHelp          PromptIcon = "HELP"
	IconChat          PromptIcon = "CHAT"
	IconScience       PromptIcon = "SCIENCE"
	IconArt           PromptIcon = "ART"
	IconLiterature    PromptIcon = "LITERATURE"
	IconEducation     PromptIcon = "EDUCATION"
	IconHealth        PromptIcon = "HEALTH"
	IconEntertainment PromptIcon = "ENTERTAINMENT"
	IconFinance       PromptIcon = "FINANCE"
	IconTravel        PromptIcon = "TRAVEL"
	IconFood          PromptIcon = "FOOD"
	IconFitness       PromptIcon = "FITNESS"
	IconEnvironment   PromptIcon = "ENVIRONMENT"
	IconHistory       PromptIcon = "HISTORY"
	IconTechnology    PromptIcon = "TECHNOLOGY"
	IconTranslation   PromptIcon = "TRANSLATION"
)

var icons = []struct {
	icon        PromptIcon
	description string
	symbol      string
}{
	{IconCode, "Coding-related prompts", "⌨"},
	{IconQuestionMark, "Queries or FAQs", "?"},
	{IconIdea, "Creative or idea-generation prompts", "💡"},
	{IconSurprise, "Fun or surprising prompts", "🎁"},
	{IconInfo, "Informational or fact-based prompts", "ℹ"},
	{IconWarning, "Caution or sensitive prompts", "⚠"},
	{IconHelp, "Help or assistance-related prompts", "🛟"},
	{IconChat, "Conversational or general discussion prompts", "💬"},
	{IconScience, "Science-related or technical prompts", "🔬"},
	{IconArt, "Art or design-related prompts", "🎨"},
	{IconLiterature, "Literature or writing-related prompts", "📖"},
	{IconEducation, "Educational or learning-related prompts", "🎓"},
	{IconHealth, "Health or wellness-related prompts", "⚕"},
	{IconEntertainment, "Entertainment or media-related prompts", "🎬"},
	{IconFinance, "Finance or business-related prompts", "💰"},
	{IconTravel, "Travel or exploration-related prompts", "✈"},
	{IconFood, "Food or culinary-related prompts", "🍔"},
	{IconFitness, "Fitness or physical activity prompts", "🏋"},
	{IconEnvironment, "Environment or sustainability-related prompts", "🌿"},
	{IconHistory, "History-related prompts", "📜"},
	{IconTechnology, "Technology or gadget-related prompts", "💻"},
	{IconTranslation, "Translation or language-related prompts", "🌐"},
}

// Icons returns every icon in declaration order.
func Icons() []PromptIcon {
	out := make([]PromptIcon, len(icons))
	for i, e := range icons {
		out[i] = e.icon
	}
	return out
}

// ParseIcon maps a tag to an icon, case-insensitively. Unknown tags become
// IconQuestionMark.
func ParseIcon(s string) PromptIcon {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, e := range icons {
		if string(e.icon) == s {
			return e.icon
		}
	}
	return IconQuestionMark
}

func (i PromptIcon) Description() string {
	for _, e := range icons {
		if e.icon == i {
			return e.description
		}
	}
	return ""
}

// Symbol is the glyph shown next to a prompt in the terminal.
func (i PromptIcon) Symbol() string {
	for _, e := range icons {
		if e.icon == i {
			return e.symbol
		}
	}
	return "?"
}

func (i *PromptIcon) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*i = IconQuestionMark
		return nil
	}
	*i = ParseIcon(s)
	return nil
}
