package cascade

import (
	"strings"

	"github.com/anti-api/gateway/internal/domain"
)

// contaminationMarkers signal that a single user turn embeds a prior
// conversation transcript, which is when identity disclosures tend to
// ride along.
var contaminationMarkers = []string{
	"human:",
	"assistant:",
	"conversation:",
	"对话:",
	"对话：",
}

// decontaminate removes identity and context disclosures from a user
// message that embeds conversation history. It fails open: messages
// without a contamination marker pass through unchanged, and so does
// everything the disclosure filter leaves alone.
func decontaminate(text string, filter domain.TextFilter) string {
	if filter == nil || !contaminated(text) {
		return text
	}
	return filter.Filter(text)
}

func contaminated(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range contaminationMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
