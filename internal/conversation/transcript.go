package conversation

import "strings"

// Transcript renders turns as "speaker: content" paragraphs separated by
// blank lines. This is the exact form shown to the generative model, for both
// question prompts and the final analysis.
func Transcript(turns []Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(string(t.Speaker))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}
