package analysis

import (
	"fmt"
	"strings"

	"github.com/crafty-arl/etherith/internal/conversation"
)

// RenderConclusion synthesizes the human-readable closing message shown to
// the user when their interview completes. It must succeed for any result,
// so empty extraction lists are replaced with generic nouns.
func RenderConclusion(result conversation.AnalysisResult) string {
	theme := "your heritage"
	if len(result.CulturalElements) > 0 {
		theme = joinWithAnd(top(result.CulturalElements, 3))
	}
	who := "the people who matter to you"
	if len(result.PeopleIdentified) > 0 {
		who = joinWithAnd(top(result.PeopleIdentified, 2))
	}

	return fmt.Sprintf(
		"Thank you for sharing this memory with me. Listening to you, I heard themes of %s, and how much %s shaped this moment. "+
			"I've preserved it with a cultural significance of %d%%, so it can be passed on the way you told it.",
		theme, who, int(result.CulturalSignificanceScore*100+0.5),
	)
}

func top(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
