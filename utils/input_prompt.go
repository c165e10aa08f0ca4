package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/patchpilot/constants/lipgloss"
)

// InputPromptWithContext prompts the user with context cancellation support. It returns io.EOF
// once stdin is closed.
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	// Create channels for input and errors
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	// Start a goroutine to read input
	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		userInput, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.TrimSpace(userInput) != "" {
				inputChan <- strings.TrimSpace(userInput)
				return
			}
			errChan <- err
			return
		}

		inputChan <- strings.TrimSpace(userInput)
	}()

	// Wait for either input or context cancellation
	select {
	case <-ctx.Done():
		fmt.Println() // Print newline for clean exit
		return "", ctx.Err()
	case err := <-errChan:
		if err == io.EOF {
			return "", io.EOF
		}
		return "", fmt.Errorf("error reading input: %w", err)
	case input := <-inputChan:
		return input, nil
	}
}

// ConfirmPrompt asks a yes/no question and reports whether the answer was yes.
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.Yellow.Render(fmt.Sprintf("%s (y/N): ", question)))

	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
