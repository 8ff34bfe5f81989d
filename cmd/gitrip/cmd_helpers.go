package main

import (
	"fmt"

	"github.com/hexrift/gitrip/cmd/ui"
)

// renderHeader renders a section header banner
func renderHeader(text string) string {
	return ui.Header(text)
}

// Color functions for terminal output
func colorGreen(s string) string {
	return fmt.Sprintf("\033[32m%s\033[0m", s)
}

func colorRed(s string) string {
	return fmt.Sprintf("\033[31m%s\033[0m", s)
}

func colorYellow(s string) string {
	return fmt.Sprintf("\033[33m%s\033[0m", s)
}

func colorCyan(s string) string {
	return fmt.Sprintf("\033[36m%s\033[0m", s)
}
