package manifest

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "```"

// Extract returns the body of the first fenced code block in text, without
// the fence lines or the language tag. Text with no complete fenced block is
// returned unchanged: ambiguous input is left alone rather than guessed at.
func Extract(text string) string {
	lines := strings.Split(text, "\n")

	open := -1
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		return strings.Join(lines[open+1:i], "\n")
	}
	return text
}

// LooksLikeManifest reports whether text parses as a YAML mapping that
// declares a services section. Generated output that fails this test is not
// worth writing to the manifest store.
func LooksLikeManifest(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return false
	}
	services, ok := doc["services"]
	if !ok {
		return false
	}
	_, ok = services.(map[string]any)
	return ok
}
