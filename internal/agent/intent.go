package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/davitran/finsight/internal/llm"
)

// analyzeIntent asks the model for a structured reading of the message. Any
// failure degrades to a heuristic intent; the turn never dies here.
func (a *Agent) analyzeIntent(ctx context.Context, userMessage string) Intent {
	prompt := fmt.Sprintf(intentPrompt, userMessage)

	reply, err := a.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{MaxTokens: 200, Temperature: 0})
	if err != nil {
		a.logger.Warn("intent analysis failed, using fallback", "error", err)
		return fallbackIntent(userMessage)
	}

	var intent Intent
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &intent); err != nil || intent.Goal == "" {
		a.logger.Warn("intent response unparseable, using fallback", "reply", reply)
		return fallbackIntent(userMessage)
	}
	if intent.Language == "" {
		intent.Language = guessLanguage(userMessage)
	}
	return intent
}

// fallbackIntent treats the raw message as the goal and guesses the language
// from its script.
func fallbackIntent(userMessage string) Intent {
	return Intent{
		Goal:     strings.TrimSpace(userMessage),
		Language: guessLanguage(userMessage),
	}
}

func guessLanguage(text string) string {
	for _, r := range text {
		if r > unicode.MaxASCII {
			return "Vietnamese"
		}
	}
	return "English"
}

// extractJSONObject pulls the first balanced object out of a reply that may
// wrap its JSON in prose or code fences.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
