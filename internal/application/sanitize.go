package application

import (
	"regexp"
	"strings"
)

var (
	commandNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,4}$`)
	hexColorPattern      = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var markupStripper = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")

// counterPalette cycles for counters created without an explicit color.
var counterPalette = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#06b6d4", "#84cc16", "#f97316",
}

// SanitizeText trims the input and strips the characters used for markup
// injection. Display pages render the result verbatim.
func SanitizeText(s string) string {
	return markupStripper.Replace(strings.TrimSpace(s))
}

func validCommandNumber(number string) bool {
	return commandNumberPattern.MatchString(number)
}

func validHexColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func paletteColor(index int) string {
	if index < 0 {
		index = 0
	}
	return counterPalette[index%len(counterPalette)]
}
