package ws

import (
	"encoding/json"

	"github.com/vovakirdan/gridbot/internal/script"
)

// Message types.
const (
	TypeRun    = "RUN"
	TypeResult = "RESULT"
	TypeError  = "ERROR"
)

// Base carries the fields every message shares.
type Base struct {
	Type string `json:"type"`
	// ID is echoed back so clients can match replies to requests.
	ID string `json:"id,omitempty"`
}

// RunMsg asks the server to run a script.
type RunMsg struct {
	Base
	Level      string `json:"level"`
	StateIndex int    `json:"state_index"`
	Script     string `json:"script"`
	// Save stores the run when a run store is configured.
	Save bool `json:"save,omitempty"`
}

// ResultMsg carries a completed run.
type ResultMsg struct {
	Base
	RunID  string         `json:"run_id,omitempty"`
	Result *script.Result `json:"result"`
}

// ErrorMsg reports a failed request. Script holds structured script
// failures; Message describes everything else.
type ErrorMsg struct {
	Base
	Script  *script.Error `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
}

// DecodeBase reads the type and ID of a raw message.
func DecodeBase(b []byte) (Base, error) {
	var base Base
	err := json.Unmarshal(b, &base)
	return base, err
}

// LevelSummary is one entry of the level listing.
type LevelSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Objective string   `json:"objective,omitempty"`
	States    int      `json:"states"`
	Disabled  []string `json:"disabled_functions,omitempty"`
}
