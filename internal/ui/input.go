package ui

import (
	"bufio"
	"os"
	"strings"
)

// Confirm prompts the user to type the expected value to confirm an action.
// Returns true if the user input matches expectedValue (case-sensitive).
func Confirm(prompt string, expectedValue string) bool {
	reader := bufio.NewReader(os.Stdin)
	os.Stdout.WriteString(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input) == expectedValue
}

// Prompt reads one line of input, trimmed. An empty line returns "".
func Prompt(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	os.Stdout.WriteString(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// PromptChoice prompts until the user enters one of the allowed values
// (case-insensitive). An empty line returns "" so callers can treat it
// as a cancel.
func PromptChoice(prompt string, allowed []string) string {
	for {
		input := Prompt(prompt)
		if input == "" {
			return ""
		}
		if match := matchChoice(input, allowed); match != "" {
			return match
		}
		Warningf("enter one of: %s", strings.Join(allowed, ", "))
	}
}

// matchChoice returns the canonical allowed value for input, or "".
func matchChoice(input string, allowed []string) string {
	for _, a := range allowed {
		if strings.EqualFold(input, a) {
			return a
		}
	}
	return ""
}
