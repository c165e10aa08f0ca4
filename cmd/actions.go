package cmd

import (
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
)

// actionPrompts turns a suggested follow-up into the message it sends. Upload actions have no
// prompt; the REPL explains the matching command instead.
var actionPrompts = map[string]string{
	"improve_all":          "Please improve all files in this project",
	"security_scan":        "Please analyze all files for security issues",
	"generate_tests":       "Please generate tests for the main functions in this project",
	"optimize_all":         "Please optimize the performance of this project",
	"add_docs":             "Please add documentation to the code in this project",
	"improve_code":         "Please show me the improved code",
	"explain_improvements": "Please explain the improvements in detail",
	"different_style":      "Please rewrite the code in a different style",
	"explain_deeper":       "Please explain this code in more depth",
	"analyze_file":         "Please analyze this code",
	"fix_bugs":             "Please find and fix the issues in this code",
	"step_by_step_fixes":   "Please show the fixes step by step",
	"test_fixes":           "Please write tests that verify the fixes",
	"add_features":         "Please suggest features to add to this code",
}

var actionCommands = map[string]string{
	"upload_file":      "/add <file>",
	"upload_directory": "/add-dir <directory>",
	"create_file":      "/new-file <name>",
}

// followUp resolves the n-th (1-based) suggested action into a prompt or a command hint.
func followUp(actions []context_models.Action, n int) (prompt string, hint string, ok bool) {
	if n < 1 || n > len(actions) {
		return "", "", false
	}
	action := actions[n-1].Action
	if prompt, found := actionPrompts[action]; found {
		return prompt, "", true
	}
	if command, found := actionCommands[action]; found {
		return "", command, true
	}
	return "", "", false
}
