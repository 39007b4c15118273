package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of check's --ui flag.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	mode := uiMode(strings.TrimSpace(strings.ToLower(value)))
	switch mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// useProgressUI decides whether check renders the interactive progress view.
// In auto mode a single file or JSON output never gets one, and both
// streams must be terminals.
func useProgressUI(opts checkOptions, files int) bool {
	switch opts.ui {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if files < 2 || opts.format == "json" {
		return false
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}
