package provider

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var htmlConverter = md.NewConverter("", true, nil)

// convertHTMLToMarkdown strips feed HTML down to markdown so downstream
// tokenization sees text, not tags. Plain text passes through untouched and
// a conversion failure falls back to the original input.
func convertHTMLToMarkdown(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}
	converted, err := htmlConverter.ConvertString(input)
	if err != nil {
		return input
	}
	return strings.TrimSpace(converted)
}
