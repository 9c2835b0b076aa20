package agent

import (
	"strings"

	"github.com/davitran/finsight/internal/llm"
)

// historyForGeneration assembles the message list for a completion call:
// past turns are filtered down to clean user and assistant exchanges, while
// the current turn keeps its full tool machinery so the model can see what
// it already did this turn.
func historyForGeneration(system llm.Message, past, current []llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, 1+len(past)+len(current))
	messages = append(messages, system)

	for _, m := range past {
		if m.Role == llm.RoleTool {
			continue
		}
		if m.Role == llm.RoleAssistant && strings.Contains(m.Content, toolCallOpen) {
			clean := StripToolCallTags(m.Content)
			if clean == "" {
				continue
			}
			messages = append(messages, llm.Message{Role: m.Role, Content: clean})
			continue
		}
		if m.Role == llm.RoleSystem {
			continue
		}
		messages = append(messages, m)
	}

	messages = append(messages, current...)
	return messages
}
