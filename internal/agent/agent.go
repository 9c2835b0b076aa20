package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/log"
	"github.com/davitran/finsight/internal/tools"
)

// DefaultMaxSteps bounds how many generate rounds one turn may use before
// synthesis is forced.
const DefaultMaxSteps = 5

// logResultLimit caps tool output length in the rendered turn log.
const logResultLimit = 200

// Options tunes the agent loop.
type Options struct {
	MaxSteps    int
	MaxTokens   int
	Temperature float32
}

// Result is the outcome of one turn.
type Result struct {
	TurnID    string
	Answer    string
	Log       string // human-readable trace of the turn
	Steps     int
	ToolCalls int
	Messages  []llm.Message // the turn's messages, for appending to history
}

// Agent runs the bounded reasoning loop over an LLM and a tool registry.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	opts     Options
	logger   log.Logger
}

// New creates an agent.
func New(client llm.Client, registry *tools.Registry, opts Options, logger log.Logger) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Agent{client: client, registry: registry, opts: opts, logger: logger}, nil
}

// Run processes one user message. history holds prior turns; it is read,
// never mutated. Run fails only when the model backend is unreachable during
// generation; tool failures, planner failures and synthesis failures stay
// inside the loop.
//
// The generation stage only emits tool calls; the final answer always comes
// out of the synthesis stage, whether or not any tools ran. When the step
// budget is exhausted after a generation, pending tool calls are dropped and
// synthesis runs with whatever was gathered so far.
func (a *Agent) Run(ctx context.Context, userMessage string, history []llm.Message) (*Result, error) {
	state := &State{
		TurnID: uuid.NewString(),
		Phase:  PhaseAnalyzeIntent,
	}
	logger := a.logger.With("turn_id", state.TurnID)
	logger.Info("turn started", "message_len", len(userMessage))

	var trace []string

	state.Intent = a.analyzeIntent(ctx, userMessage)
	logger.Info("intent analyzed", "goal", state.Intent.Goal, "language", state.Intent.Language)

	state.Phase = PhasePlanning
	state.Plan = a.plan(ctx, state.Intent)
	if state.Plan != "" {
		logger.Info("plan produced", "plan", state.Plan)
		trace = append(trace, "Plan: "+state.Plan)
	}

	system := a.systemMessage(state.Intent, state.Plan)
	state.Current = []llm.Message{{Role: llm.RoleUser, Content: userMessage}}

	toolCalls := 0
	state.Phase = PhaseGenerate
	for {
		reply, err := a.client.Complete(ctx, historyForGeneration(system, history, state.Current), llm.Options{
			MaxTokens:   a.opts.MaxTokens,
			Temperature: a.opts.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		state.Step++

		calls := ParseToolCalls(reply)
		if strings.TrimSpace(reply) != "" {
			state.Current = append(state.Current, llm.Message{Role: llm.RoleAssistant, Content: reply})
		}

		if len(calls) > 0 && state.Step >= a.opts.MaxSteps {
			logger.Warn("step budget exhausted, dropping pending tool calls", "steps", state.Step, "dropped", len(calls))
			trace = append(trace, fmt.Sprintf("Step budget exhausted: dropped %d pending tool call(s)", len(calls)))
			calls = nil
		}

		if len(calls) == 0 {
			break
		}

		state.Phase = PhaseExecuteTools
		for _, call := range calls {
			toolCalls++
			args, _ := json.Marshal(call.Arguments)
			logger.Info("calling tool", "tool", call.Name, "args", string(args))
			trace = append(trace, fmt.Sprintf("Tool Call: %s | Args: %s", call.Name, args))

			output := a.registry.Execute(ctx, call.Name, call.Arguments)
			trace = append(trace, "Result: "+truncateForLog(output))
			state.Current = append(state.Current, llm.Message{
				Role:    llm.RoleTool,
				Content: fmt.Sprintf("[%s] %s", call.Name, output),
			})
		}
		state.Phase = PhaseGenerate
	}

	state.Phase = PhaseSynthesis
	trace = append(trace, "Final Synthesis: consolidating gathered information")
	state.Answer = a.synthesize(ctx, system, history, state)
	state.Phase = PhaseEnd

	if state.Answer == "" {
		state.Answer = lastAssistantAnswer(state.Current)
	}
	if state.Answer == "" {
		state.Answer = "I could not produce an answer this time. Please try rephrasing your question."
	}
	trace = append(trace, "Answer: "+truncateForLog(state.Answer))

	state.Current = append(state.Current, llm.Message{Role: llm.RoleAssistant, Content: state.Answer})
	logger.Info("turn finished", "steps", state.Step, "tool_calls", toolCalls, "answer_len", len(state.Answer))

	return &Result{
		TurnID:    state.TurnID,
		Answer:    state.Answer,
		Log:       strings.Join(trace, "\n\n"),
		Steps:     state.Step,
		ToolCalls: toolCalls,
		Messages:  state.Current,
	}, nil
}

// synthesize produces the final answer. A backend failure here is not fatal:
// the raw tool outputs gathered this turn become the answer, and when there
// are none the caller falls back to the last assistant message.
func (a *Agent) synthesize(ctx context.Context, system llm.Message, history []llm.Message, state *State) string {
	messages := historyForGeneration(system, history, state.Current)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(synthesisPrompt, state.Intent.Goal, state.Intent.Language),
	})

	reply, err := a.client.Complete(ctx, messages, llm.Options{
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err == nil {
		if answer := StripToolCallTags(reply); answer != "" {
			return answer
		}
	} else {
		a.logger.Error("synthesis failed, falling back to tool outputs", "error", err)
	}

	var outputs []string
	for _, m := range state.Current {
		if m.Role == llm.RoleTool {
			outputs = append(outputs, m.Content)
		}
	}
	if len(outputs) == 0 {
		return ""
	}
	return "I gathered the following information but could not compose a final answer:\n\n" +
		strings.Join(outputs, "\n")
}

func (a *Agent) systemMessage(intent Intent, plan string) llm.Message {
	content := fmt.Sprintf(systemPromptTemplate, intent.Goal, intent.Language, a.registry.Describe())
	if plan != "" {
		content += "\n\n" + plan
	}
	return llm.Message{Role: llm.RoleSystem, Content: content}
}

// lastAssistantAnswer walks the turn backwards for assistant content that
// survives tag stripping.
func lastAssistantAnswer(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llm.RoleAssistant {
			continue
		}
		if answer := StripToolCallTags(messages[i].Content); answer != "" {
			return answer
		}
	}
	return ""
}

func truncateForLog(s string) string {
	runes := []rune(s)
	if len(runes) <= logResultLimit {
		return s
	}
	return string(runes[:logResultLimit]) + "..."
}
