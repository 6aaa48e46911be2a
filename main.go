package main

import "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/cmd"

// execCmd is swappable for testing
var execCmd = cmd.Execute

func main() {
	execCmd()
}
