package sources

import (
	"strings"
)

// formatNotes passes free text through with line endings normalized and
// surrounding whitespace trimmed. The record count is the number of non-blank lines.
func formatNotes(raw []byte) (string, int) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	count := 0
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
		if lines[i] != "" {
			count++
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), count
}
