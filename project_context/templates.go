package project_context

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/patchpilot/project_context/models"
)

var (
	analysisActions = []models.Action{
		{Label: "Improve All Files", Action: "improve_all"},
		{Label: "Find Security Issues", Action: "security_scan"},
		{Label: "Generate Tests", Action: "generate_tests"},
		{Label: "Optimize Performance", Action: "optimize_all"},
		{Label: "Add Documentation", Action: "add_docs"},
	}
	improvementActions = []models.Action{
		{Label: "Show Improved Code", Action: "improve_code"},
		{Label: "Explain Changes", Action: "explain_improvements"},
		{Label: "Apply Different Style", Action: "different_style"},
	}
	explanationActions = []models.Action{
		{Label: "Explain In More Depth", Action: "explain_deeper"},
		{Label: "Analyze This File", Action: "analyze_file"},
		{Label: "Improve Code", Action: "improve_code"},
	}
	issueActions = []models.Action{
		{Label: "Fix All Issues", Action: "fix_bugs"},
		{Label: "Show Fixes Step by Step", Action: "step_by_step_fixes"},
		{Label: "Test the Fixes", Action: "test_fixes"},
	}
	generalActions = []models.Action{
		{Label: "Analyze This File", Action: "analyze_file"},
		{Label: "Improve Code", Action: "improve_code"},
		{Label: "Find Issues", Action: "fix_bugs"},
		{Label: "Add Features", Action: "add_features"},
	}
	noFilesActions = []models.Action{
		{Label: "Upload Single File", Action: "upload_file"},
		{Label: "Upload Directory", Action: "upload_directory"},
		{Label: "Create New File", Action: "create_file"},
	}
)

// UploadActions lists the action ids offered when a chat has no files.
func UploadActions() []string {
	ids := make([]string, 0, len(noFilesActions))
	for _, action := range noFilesActions {
		ids = append(ids, action.Action)
	}
	return ids
}

// Respond fills the template for intent with the aggregates of ctx. A context without files
// always yields the no-files reply.
func Respond(message string, ctx models.ProjectContext, intent models.Intent) models.Response {
	if !ctx.HasFiles() {
		return NoFilesResponse(message)
	}

	switch intent {
	case models.IntentAnalysis:
		return models.Response{Content: analysisContent(ctx), Actions: cloneActions(analysisActions)}
	case models.IntentImprovement:
		return models.Response{Content: improvementContent(ctx), Actions: cloneActions(improvementActions)}
	case models.IntentExplanation:
		return models.Response{Content: explanationContent(ctx), Actions: cloneActions(explanationActions)}
	case models.IntentIssue:
		return models.Response{Content: issueContent(ctx), Actions: cloneActions(issueActions)}
	default:
		return models.Response{Content: generalContent(ctx, message), Actions: cloneActions(generalActions)}
	}
}

func cloneActions(actions []models.Action) []models.Action {
	return append([]models.Action(nil), actions...)
}

func analysisContent(ctx models.ProjectContext) string {
	return fmt.Sprintf(`## 🔍 Complete Project Analysis

I've analyzed all **%d files** in your project. Here's what I found:

### **Project Overview**
%s

### **Project Structure**
`+"```"+`
%s
`+"```"+`

### **Code Quality Assessment**

**Strengths:**
• Well-organized file structure
• Good use of %s
• Clear naming conventions in most files

**Areas for Improvement:**
• Some functions could be broken down further
• Consider adding more comprehensive error handling
• Documentation could be enhanced

### **Detailed File Analysis**
%s
### **Recommendations**
1. **Code Organization:** Consider grouping related functionality
2. **Testing:** Add unit tests for critical functions
3. **Documentation:** Improve inline comments and README
4. **Error Handling:** Add try-catch blocks where appropriate

Would you like me to dive deeper into any specific aspect or file?`,
		ctx.FileCount, ctx.Summary, ctx.Structure, strings.Join(ctx.Languages, " and "), FileAnalysis(ctx.Files))
}

func improvementContent(ctx models.ProjectContext) string {
	return fmt.Sprintf(`## 🔧 Code Improvement Analysis

I've reviewed **%d files** (%s) and here are the improvements I recommend:

### **Project Overview**
%s

### **Immediate Improvements:**
• **Code Structure**: Group related functionality and keep modules focused
• **Error Handling**: Handle failures explicitly at every boundary
• **Performance**: Revisit loops and data structures on hot paths
• **Readability**: Improve naming and add comments where intent is unclear

### **File-Specific Suggestions:**
%s
### **Next Steps:**
1. **Review the suggestions** I've highlighted
2. **Apply improvements** one section at a time
3. **Test thoroughly** after each change

Would you like me to show you the improved code with these changes applied?`,
		ctx.FileCount, strings.Join(ctx.Languages, ", "), ctx.Summary, improvementHints(ctx.Files))
}

func explanationContent(ctx models.ProjectContext) string {
	return fmt.Sprintf(`## 📖 Code Explanation

Let me break down what your project is doing.

### **Main Purpose:**
%s

### **Project Structure**
`+"```"+`
%s
`+"```"+`

### **Key Components:**
%s
### **Code Flow:**
1. **Initialization**: Setting up variables and configurations
2. **Main Logic**: Core functionality execution
3. **Output/Return**: Final results or side effects

Would you like me to explain any specific part in more detail?`,
		ctx.Summary, ctx.Structure, FileAnalysis(ctx.Files))
}

func issueContent(ctx models.ProjectContext) string {
	return fmt.Sprintf(`## 🐛 Bug Analysis

I've scanned **%d files** (%d lines of %s) for potential issues:

### **Potential Issues Found:**
• **Logic Errors**: Check conditional statements and loop bounds
• **Edge Cases**: Consider what happens with unexpected input
• **Resource Management**: Ensure proper cleanup of resources
• **Null/Undefined**: Add checks for empty or null values

### **Files Reviewed:**
%s
### **Recommended Fixes:**
1. Add input validation at function entry points
2. Implement proper error handling
3. Add boundary checks for arrays/collections
4. Cover the fixed paths with tests

Would you like me to show you the corrected version with these fixes applied?`,
		ctx.FileCount, ctx.TotalLines, strings.Join(ctx.Languages, ", "), FileAnalysis(ctx.Files))
}

func generalContent(ctx models.ProjectContext, message string) string {
	return fmt.Sprintf(`## 💬 How Can I Help?

You asked: "%s"

I can see **%d files** loaded in this chat. %s

### **What I Can Do:**
• **Analyze Code**: Find bugs, performance issues, and improvements
• **Explain Logic**: Break down complex algorithms and functions
• **Suggest Improvements**: Optimize structure, readability, and performance
• **Fix Issues**: Identify and resolve specific problems
• **Add Features**: Help implement new functionality

### **Files in Context:**
%s
What would you like me to help you with regarding your code?`,
		message, ctx.FileCount, ctx.Summary, FileAnalysis(ctx.Files))
}

// NoFilesResponse is the reply used whenever a chat has no files, whatever the message asks.
func NoFilesResponse(message string) models.Response {
	content := fmt.Sprintf(`## 👋 Ready to Help!

I'd love to help you with your coding question: "%s"

However, I don't see any files loaded in our current chat. Here's what you can do:

### **Upload Code to Get Started:**
• **Single File:** Add any code file
• **Multiple Files:** Add several files at once
• **Entire Project:** Upload a folder to analyze the whole project

### **What I Can Do Once You Upload:**
• 🔍 **Analyze** your entire codebase
• 🐛 **Find bugs** and potential issues
• ⚡ **Suggest optimizations** and improvements
• 📝 **Explain** how your code works
• 🔧 **Refactor** and improve structure
• 🧪 **Generate tests** for your functions
• 📚 **Add documentation** and comments

### **Example Questions to Ask:**
• "What can be improved in this project?"
• "Find any security vulnerabilities"
• "Explain how this algorithm works"
• "Add error handling to all functions"
• "Generate unit tests for my code"

Upload your code and ask me anything! 🚀`, message)

	return models.Response{Content: content, Actions: cloneActions(noFilesActions)}
}

// FileAnalysis renders the per-file block: lines and language, declared names and complexity.
func FileAnalysis(files []models.FileContext) string {
	var builder strings.Builder
	for _, file := range files {
		fmt.Fprintf(&builder, "\n**%s**\n", file.Path)
		fmt.Fprintf(&builder, "• %d lines of %s\n", file.Lines, LanguageName(file.Extension))

		if names := symbolNames(file.Structure.Functions, "`"); len(names) > 0 {
			fmt.Fprintf(&builder, "• Functions: %s\n", strings.Join(names, ", "))
		}
		if names := symbolNames(file.Structure.Classes, "`"); len(names) > 0 {
			fmt.Fprintf(&builder, "• Classes: %s\n", strings.Join(names, ", "))
		}

		fmt.Fprintf(&builder, "• Complexity: %s\n", AssessComplexity(file))
	}
	return builder.String()
}

func improvementHints(files []models.FileContext) string {
	var builder strings.Builder
	for _, file := range files {
		complexity := AssessComplexity(file)
		fmt.Fprintf(&builder, "• **%s** (%s complexity)", file.Path, complexity)
		switch {
		case len(file.Structure.Functions) == 0:
			builder.WriteString(": consider extracting logic into named functions\n")
		case complexity == ComplexityHigh || complexity == ComplexityVeryHigh:
			builder.WriteString(": break large functions into smaller, focused units\n")
		case file.Structure.Comments == 0:
			builder.WriteString(": add comments describing the non-obvious parts\n")
		default:
			builder.WriteString(": looks reasonable, focus on naming and validation\n")
		}
	}
	return builder.String()
}
