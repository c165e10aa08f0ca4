package main

import "github.com/meysamhadeli/patchpilot/cmd"

func main() {
	cmd.Execute()
}
