package agent

import (
	"encoding/json"
	"strings"
)

const (
	toolCallOpen  = "<tool_call>"
	toolCallClose = "</tool_call>"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ParseToolCalls extracts tool invocations from model output. Tagged blocks
// are the primary format; only when they yield nothing does a brace scan
// recover bare JSON objects that look like tool calls. Malformed blocks are
// skipped, never fatal: a sibling block that parses still executes.
func ParseToolCalls(text string) []ToolCall {
	if calls := parseTagged(text); len(calls) > 0 {
		return calls
	}
	return parseBare(text)
}

func parseTagged(text string) []ToolCall {
	var calls []ToolCall
	rest := text
	for {
		start := strings.Index(rest, toolCallOpen)
		if start < 0 {
			return calls
		}
		rest = rest[start+len(toolCallOpen):]
		end := strings.Index(rest, toolCallClose)
		if end < 0 {
			return calls
		}
		if call, ok := decodeToolCall(rest[:end]); ok {
			calls = append(calls, call)
		}
		rest = rest[end+len(toolCallClose):]
	}
}

// parseBare scans for balanced JSON objects and keeps those that decode with
// both a name and arguments. A brace that never balances (malformed model
// output) does not poison the rest of the text: scanning resumes from the
// next brace.
func parseBare(text string) []ToolCall {
	var calls []ToolCall
	for i := 0; i < len(text); {
		start := strings.Index(text[i:], "{")
		if start < 0 {
			break
		}
		start += i

		obj, end := scanObject(text, start)
		if end < 0 {
			i = start + 1
			continue
		}
		if call, ok := decodeToolCall(obj); ok {
			calls = append(calls, call)
		}
		i = end
	}
	return calls
}

// scanObject returns the balanced JSON object starting at start and the
// offset just past it, or -1 when the braces never balance. Braces inside
// JSON strings do not count.
func scanObject(text string, start int) (string, int) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], i + 1
			}
		}
	}
	return "", -1
}

// decodeToolCall accepts only objects carrying both fields; arbitrary JSON
// in the model's prose does not become a tool call.
func decodeToolCall(raw string) (ToolCall, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return ToolCall{}, false
	}
	if _, ok := fields["name"]; !ok {
		return ToolCall{}, false
	}
	if _, ok := fields["arguments"]; !ok {
		return ToolCall{}, false
	}

	var call ToolCall
	if err := json.Unmarshal([]byte(raw), &call); err != nil {
		return ToolCall{}, false
	}
	if call.Name == "" {
		return ToolCall{}, false
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	return call, true
}

// StripToolCallTags removes tagged tool-call blocks and stray tags so they
// never leak into user-visible answers.
func StripToolCallTags(text string) string {
	for {
		start := strings.Index(text, toolCallOpen)
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], toolCallClose)
		if end < 0 {
			text = text[:start]
			break
		}
		text = text[:start] + text[start+end+len(toolCallClose):]
	}
	text = strings.ReplaceAll(text, toolCallOpen, "")
	text = strings.ReplaceAll(text, toolCallClose, "")
	return strings.TrimSpace(text)
}
