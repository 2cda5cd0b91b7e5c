package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// QuickAction is a predefined prompt template offered as a one-click
// chat request. The label is display-only; only the prompt reaches the
// LLM.
type QuickAction struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

func defaultQuickActions() []QuickAction {
	return []QuickAction{
		{Label: "Summary", Prompt: "Write a concise summary of the transcription."},
		{Label: "Sentiment", Prompt: "Analyze the overall sentiment and emotional tone of the conversation."},
		{Label: "Action Items", Prompt: "Extract action items with owners and suggested due dates when possible."},
	}
}

// LoadQuickActions resolves the quick action list. Precedence: inline
// JSON, then a JSON file, then the built-in defaults. A malformed
// override is a startup error rather than a silent fallback, so a typo
// never masquerades as the defaults.
func LoadQuickActions(inlineJSON, filePath string) ([]QuickAction, error) {
	if inlineJSON != "" {
		actions, err := parseQuickActions([]byte(inlineJSON))
		if err != nil {
			return nil, fmt.Errorf("invalid QUICK_ACTIONS: %w", err)
		}
		return actions, nil
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read quick actions file: %w", err)
		}
		actions, err := parseQuickActions(data)
		if err != nil {
			return nil, fmt.Errorf("invalid quick actions file %s: %w", filePath, err)
		}
		return actions, nil
	}

	return defaultQuickActions(), nil
}

func parseQuickActions(data []byte) ([]QuickAction, error) {
	var actions []QuickAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("quick actions list is empty")
	}
	for i, a := range actions {
		if a.Label == "" || a.Prompt == "" {
			return nil, fmt.Errorf("quick action %d is missing a label or prompt", i)
		}
	}
	return actions, nil
}
