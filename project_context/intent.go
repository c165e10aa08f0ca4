package project_context

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/project_context/models"
)

type intentRule struct {
	intent   models.Intent
	keywords []string
}

// Checked in order; the first rule with a matching keyword decides.
var intentRules = []intentRule{
	{models.IntentAnalysis, []string{"analyze", "review", "check", "examine", "look at", "assess"}},
	{models.IntentImprovement, []string{"improve", "optimize", "enhance", "better", "refactor", "upgrade"}},
	{models.IntentExplanation, []string{"explain", "what", "how", "why", "tell me", "describe"}},
	{models.IntentIssue, []string{"bug", "error", "issue", "problem", "fix", "wrong"}},
}

// ClassifyIntent assigns message to a category by case-insensitive substring tests,
// falling through to IntentGeneral when nothing matches.
func ClassifyIntent(message string) models.Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.intent
			}
		}
	}
	return models.IntentGeneral
}
