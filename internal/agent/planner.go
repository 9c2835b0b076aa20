package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/davitran/finsight/internal/llm"
)

const (
	needSearchMarker = "NEED_SEARCH"
	noSearchMarker   = "NO_SEARCH"
)

// plan decides whether the turn needs external information. The result is a
// directive injected into the system context, or empty when no research is
// needed. Planner failures are soft: the generation phase can still call
// tools on its own.
func (a *Agent) plan(ctx context.Context, intent Intent) string {
	prompt := fmt.Sprintf(planningPrompt, a.registry.Describe(), intent.Goal)

	reply, err := a.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{MaxTokens: 200, Temperature: 0})
	if err != nil {
		a.logger.Warn("planning failed, continuing without a plan", "error", err)
		return ""
	}

	topics := parsePlanTopics(reply)
	if len(topics) == 0 {
		return ""
	}
	return fmt.Sprintf(planningDirective, strings.Join(topics, "; "))
}

// parsePlanTopics extracts research topics from a planner reply. Topics
// accumulate across every NEED_SEARCH line; a NO_SEARCH line, and free-form
// prose without any marker, yield no topics.
func parsePlanTopics(reply string) []string {
	var topics []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")

		if strings.HasPrefix(line, noSearchMarker) {
			return nil
		}
		if !strings.HasPrefix(line, needSearchMarker) {
			continue
		}

		rest := strings.TrimPrefix(line, needSearchMarker)
		rest = strings.TrimLeft(rest, ": ")
		for _, topic := range strings.Split(rest, ";") {
			if topic = strings.TrimSpace(topic); topic != "" {
				topics = append(topics, topic)
			}
		}
	}
	return topics
}
