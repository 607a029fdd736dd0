package manifest

import (
	"regexp"
	"strings"
)

var serviceNameInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// ServiceName derives a compose service key from a display name: lowercased,
// runs of unsupported characters collapsed to "-", and leading or trailing
// separators trimmed. "Home Assistant" becomes "home-assistant".
func ServiceName(display string) string {
	name := serviceNameInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(display)), "-")
	return strings.Trim(name, "-._")
}
