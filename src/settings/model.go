package settings

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AIModel is a Gemini model offered during setup. Number is the stable
// value persisted in the user config.
type AIModel struct {
	Name   string
	Number int
}

var (
	Gemini20FlashExp = AIModel{Name: "gemini-2.0-flash-exp", Number: 0}
	Gemini15Flash    = AIModel{Name: "gemini-1.5-flash", Number: 1}
	Gemini15Pro      = AIModel{Name: "gemini-1.5-pro-latest", Number: 2}
	Gemini25Flash    = AIModel{Name: "gemini-2.5-flash", Number: 3}
)

// DefaultModel is used when nothing valid is stored.
var DefaultModel = Gemini25Flash

// Models returns the catalog ordered by number.
func Models() []AIModel {
	return []AIModel{Gemini20FlashExp, Gemini15Flash, Gemini15Pro, Gemini25Flash}
}

// ModelFromNumber maps a stored number back to its model, falling back to
// DefaultModel.
func ModelFromNumber(n int) AIModel {
	for _, m := range Models() {
		if m.Number == n {
			return m
		}
	}
	return DefaultModel
}

// ParseModel accepts a model name or its number.
func ParseModel(s string) (AIModel, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		for _, m := range Models() {
			if m.Number == n {
				return m, true
			}
		}
		return AIModel{}, false
	}
	for _, m := range Models() {
		if strings.EqualFold(m.Name, s) {
			return m, true
		}
	}
	return AIModel{}, false
}

func (m AIModel) String() string {
	return m.Name
}

// MarshalJSON stores only the number.
func (m AIModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Number)
}

// UnmarshalJSON resolves the number through ModelFromNumber.
func (m *AIModel) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = ModelFromNumber(n)
	return nil
}
