package cmd

import (
	"bufio"
	"os"

	"github.com/meysamhadeli/patchpilot/utils"
)

// confirm asks question on stdin and treats read failures as "no".
func confirm(question string) bool {
	confirmed, err := utils.ConfirmPrompt(question, bufio.NewReader(os.Stdin))
	return err == nil && confirmed
}
