package project_context

import (
	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
)

// Complexity is a coarse size rating of a single file.
type Complexity string

const (
	ComplexityLow      Complexity = "Low"
	ComplexityMedium   Complexity = "Medium"
	ComplexityHigh     Complexity = "High"
	ComplexityVeryHigh Complexity = "Very High"
)

// AssessComplexity rates a file by its line count and average lines per function.
func AssessComplexity(file context_models.FileContext) Complexity {
	functions := len(file.Structure.Functions)
	linesPerFunction := float64(file.Lines)
	if functions > 0 {
		linesPerFunction = float64(file.Lines) / float64(functions)
	}

	switch {
	case file.Lines < 50 && functions < 5:
		return ComplexityLow
	case file.Lines < 200 && linesPerFunction < 50:
		return ComplexityMedium
	case file.Lines < 500 && linesPerFunction < 100:
		return ComplexityHigh
	default:
		return ComplexityVeryHigh
	}
}

func symbolNames(symbols []models.Symbol, quote string) []string {
	names := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		names = append(names, quote+symbol.Name+quote)
	}
	return names
}
