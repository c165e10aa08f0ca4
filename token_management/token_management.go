package token_management

import (
	"fmt"
	"strings"
	"sync"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
	"github.com/meysamhadeli/patchpilot/token_management/contracts"
)

// TokenManager implementation
type tokenManager struct {
	mutex           sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type pricing struct {
	InputCostPerMillionTokens  float64
	OutputCostPerMillionTokens float64
}

// Hosted model prices in USD. Local providers are free.
var modelPricing = map[string]pricing{
	"gpt-4o":        {InputCostPerMillionTokens: 2.5, OutputCostPerMillionTokens: 10},
	"gpt-4o-mini":   {InputCostPerMillionTokens: 0.15, OutputCostPerMillionTokens: 0.6},
	"gpt-4.1":       {InputCostPerMillionTokens: 2, OutputCostPerMillionTokens: 8},
	"gpt-4.1-mini":  {InputCostPerMillionTokens: 0.4, OutputCostPerMillionTokens: 1.6},
	"gpt-3.5-turbo": {InputCostPerMillionTokens: 0.5, OutputCostPerMillionTokens: 1.5},
}

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	total, input, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)

	tokenInfo := fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Chat Model: %s", total, cost, chatModel)

	tokenBox := lipgloss.BoxStyle.Render(tokenInfo)
	fmt.Println(tokenBox)
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	if strings.EqualFold(providerName, "ollama") {
		return 0
	}

	modelDetails, exists := modelPricing[strings.ToLower(modelName)]
	if !exists {
		return 0
	}

	// Calculate cost for input tokens (convert from per-million to actual cost)
	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0

	// Calculate cost for output tokens (convert from per-million to actual cost)
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + outputCost
}
