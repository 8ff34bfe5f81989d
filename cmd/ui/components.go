package ui

import (
	"fmt"
	"strings"
)

// SuccessMessage creates a success message with a checkmark icon
func SuccessMessage(message string, details ...string) string {
	var parts []string
	parts = append(parts, Green(IconCheck), Green(message))

	for _, detail := range details {
		parts = append(parts, Blue(detail))
	}

	return strings.Join(parts, " ")
}

// ErrorMessage formats an error message in red
func ErrorMessage(message string) string {
	return Red(message)
}

// WarningMessage formats a warning message in yellow
func WarningMessage(message string) string {
	return Yellow(message)
}

// TargetInfo formats the normalized target URL with an icon
func TargetInfo(base string) string {
	return fmt.Sprintf("%s Target: %s", Cyan(IconTarget), Blue(base))
}

// CheckoutHint tells the user how to turn the reconstructed .git directory
// into a working tree.
func CheckoutHint(outDir string) string {
	return fmt.Sprintf("%s Run %s inside %s to restore the working tree",
		Yellow(IconHint), Cyan("git checkout -- ."), Blue(outDir))
}
