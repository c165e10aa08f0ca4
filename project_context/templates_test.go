package project_context

import (
	"strings"
	"testing"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
	provider_models "github.com/meysamhadeli/patchpilot/providers/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionIDs(actions []context_models.Action) []string {
	ids := make([]string, 0, len(actions))
	for _, action := range actions {
		ids = append(ids, action.Action)
	}
	return ids
}

func TestRespond_NoFilesForEveryIntent(t *testing.T) {
	empty := BuildContext(nil)
	intents := []context_models.Intent{
		context_models.IntentAnalysis,
		context_models.IntentImprovement,
		context_models.IntentExplanation,
		context_models.IntentIssue,
		context_models.IntentGeneral,
	}

	for _, intent := range intents {
		t.Run(string(intent), func(t *testing.T) {
			response := Respond("review my code", empty, intent)

			assert.Equal(t, []string{"upload_file", "upload_directory", "create_file"}, actionIDs(response.Actions))
			assert.ElementsMatch(t, UploadActions(), actionIDs(response.Actions))
			assert.Contains(t, response.Content, `"review my code"`)
		})
	}
}

func TestRespond_ActionsPerIntent(t *testing.T) {
	ctx := BuildContext(scenarioFiles())

	tests := []struct {
		intent  context_models.Intent
		actions []string
		heading string
	}{
		{context_models.IntentAnalysis, []string{"improve_all", "security_scan", "generate_tests", "optimize_all", "add_docs"}, "Complete Project Analysis"},
		{context_models.IntentImprovement, []string{"improve_code", "explain_improvements", "different_style"}, "Code Improvement Analysis"},
		{context_models.IntentExplanation, []string{"explain_deeper", "analyze_file", "improve_code"}, "Code Explanation"},
		{context_models.IntentIssue, []string{"fix_bugs", "step_by_step_fixes", "test_fixes"}, "Bug Analysis"},
		{context_models.IntentGeneral, []string{"analyze_file", "improve_code", "fix_bugs", "add_features"}, "How Can I Help?"},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			response := Respond("anything", ctx, tt.intent)

			assert.Equal(t, tt.actions, actionIDs(response.Actions))
			assert.Contains(t, response.Content, tt.heading)
			assert.Contains(t, response.Content, "src/a.py")
		})
	}
}

func TestRespond_AnalysisEmbedsContext(t *testing.T) {
	ctx := BuildContext(scenarioFiles())
	response := Respond("analyze", ctx, context_models.IntentAnalysis)

	assert.Contains(t, response.Content, "**2 files**")
	assert.Contains(t, response.Content, ctx.Summary)
	assert.Contains(t, response.Content, ctx.Structure)
	assert.Contains(t, response.Content, "• Functions: `foo`")
	assert.Contains(t, response.Content, "• Complexity: Low")
	assert.Contains(t, response.Content, "Good use of Python")
}

func TestRespond_ActionsAreNotShared(t *testing.T) {
	ctx := BuildContext(scenarioFiles())
	first := Respond("analyze", ctx, context_models.IntentAnalysis)
	first.Actions[0].Action = "mutated"

	second := Respond("analyze", ctx, context_models.IntentAnalysis)
	assert.Equal(t, "improve_all", second.Actions[0].Action)
}

func TestAssessComplexity(t *testing.T) {
	symbols := func(n int) []models.Symbol {
		out := make([]models.Symbol, n)
		for i := range out {
			out[i] = models.Symbol{Name: "f", Line: i + 1}
		}
		return out
	}

	tests := []struct {
		name      string
		lines     int
		functions int
		want      Complexity
	}{
		{"small", 40, 2, ComplexityLow},
		{"small with many functions", 40, 6, ComplexityMedium},
		{"medium", 150, 5, ComplexityMedium},
		{"medium without functions", 150, 0, ComplexityVeryHigh},
		{"dense medium", 199, 3, ComplexityHigh},
		{"high", 400, 5, ComplexityHigh},
		{"very high", 800, 20, ComplexityVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := context_models.FileContext{
				Lines:     tt.lines,
				Structure: models.FileStructure{Functions: symbols(tt.functions)},
			}
			assert.Equal(t, tt.want, AssessComplexity(file))
		})
	}
}

func TestContextPromptAndHistoryWindow(t *testing.T) {
	ctx := BuildContext(scenarioFiles())
	history := []provider_models.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
	}

	request := BuildChatRequest(ctx, history, "what next?")

	require.Len(t, request.History, HistoryWindow)
	assert.Equal(t, "two", request.History[0].Content)
	assert.Equal(t, "what next?", request.UserInput)
	assert.True(t, strings.HasPrefix(request.SystemPrompt, "## Project Context"))
	assert.Contains(t, request.SystemPrompt, "### src/a.py\n- **Language:** Python\n- **Size:** 2 lines, 0.0KB\n- **Functions:** foo\n")
	assert.Contains(t, request.SystemPrompt, "```py\ndef foo():\n    pass\n\n```")
}

func TestFallbackAnalysis(t *testing.T) {
	analysis := FallbackAnalysis("package main\n\nfunc main() {}\n", "main.go")

	assert.Equal(t, "go", analysis.Language)
	assert.Equal(t, 4, analysis.Lines)
	assert.Contains(t, analysis.Response, "• **Total lines:** 4")
	assert.Contains(t, analysis.Response, "• **Code lines:** 2")
	assert.Contains(t, analysis.Response, "• **Name:** main.go")

	unknown := FallbackAnalysis("", "notes")
	assert.Equal(t, "unknown", unknown.Language)
	assert.NotEmpty(t, unknown.Response)
}
