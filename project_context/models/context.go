package models

import (
	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// Intent is the coarse category of a user message.
type Intent string

const (
	IntentAnalysis    Intent = "analysis"
	IntentImprovement Intent = "improvement"
	IntentExplanation Intent = "explanation"
	IntentIssue       Intent = "issue"
	IntentGeneral     Intent = "general"
)

// Action is a suggested follow-up attached to a reply.
type Action struct {
	Label  string `json:"label" validate:"required"`
	Action string `json:"action" validate:"required"`
}

// FileContext is one file as it appears in a project context.
type FileContext struct {
	Path      string               `json:"path"`
	Name      string               `json:"name"`
	Extension string               `json:"extension"`
	Size      int                  `json:"size"`
	Lines     int                  `json:"lines"`
	Content   string               `json:"content"`
	Structure models.FileStructure `json:"structure"`
}

// ProjectContext aggregates a file set for prompting and templated replies.
type ProjectContext struct {
	Structure  string        `json:"structure"`
	FileCount  int           `json:"fileCount"`
	TotalLines int           `json:"totalLines"`
	Languages  []string      `json:"languages"`
	Files      []FileContext `json:"files"`
	Summary    string        `json:"summary"`
}

// HasFiles reports whether the context carries at least one file.
func (c ProjectContext) HasFiles() bool {
	return c.FileCount > 0
}

// Response is a templated reply with its follow-up actions.
type Response struct {
	Content string   `json:"content"`
	Actions []Action `json:"actions"`
}
