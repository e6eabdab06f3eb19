package provider

import (
	"strings"
	"testing"
)

func TestConvertHTMLToMarkdown_Tags(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "heading",
			html:     "<h1>Flood warning issued</h1>",
			expected: "# Flood warning issued",
		},
		{
			name:     "paragraphs",
			html:     "<p>First update.</p><p>Second update.</p>",
			expected: "First update.\n\nSecond update.",
		},
		{
			name:     "link",
			html:     `<a href="https://example.com/report">full report</a>`,
			expected: "[full report](https://example.com/report)",
		},
		{
			name:     "bold in text",
			html:     "<p>Service is <strong>down</strong> in two regions</p>",
			expected: "Service is **down** in two regions",
		},
		{
			name:     "entity decoding",
			html:     "<p>Search &amp; rescue underway</p>",
			expected: "Search & rescue underway",
		},
		{
			name:     "attributes stripped",
			html:     `<div class="summary" id="s1">Outage resolved</div>`,
			expected: "Outage resolved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertHTMLToMarkdown(tt.html)
			if strings.TrimSpace(result) != strings.TrimSpace(tt.expected) {
				t.Errorf("convertHTMLToMarkdown() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestConvertHTMLToMarkdown_PlainTextPassthrough(t *testing.T) {
	input := "Magnitude 6.1 earthquake reported off the coast"
	if got := convertHTMLToMarkdown(input); got != input {
		t.Errorf("plain text changed: got %q, want %q", got, input)
	}
}
