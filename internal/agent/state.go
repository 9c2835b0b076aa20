// Package agent implements the multi-step reasoning loop: intent analysis,
// planning, tool-assisted generation and final synthesis.
package agent

import "github.com/davitran/finsight/internal/llm"

// Phase identifies where a turn is in the reasoning loop.
type Phase string

const (
	PhaseAnalyzeIntent Phase = "analyze_intent"
	PhasePlanning      Phase = "planning"
	PhaseGenerate      Phase = "generate"
	PhaseExecuteTools  Phase = "execute_tools"
	PhaseSynthesis     Phase = "synthesis"
	PhaseEnd           Phase = "end"
)

// Intent is the structured reading of what the user wants.
type Intent struct {
	Goal     string `json:"goal"`
	Language string `json:"language"`
}

// State carries one turn through the loop. A fresh State is created per
// user message; nothing is shared between turns except conversation history.
type State struct {
	TurnID  string
	Phase   Phase
	Step    int
	Intent  Intent
	Plan    string
	Current []llm.Message // messages accumulated within this turn
	Answer  string
}
