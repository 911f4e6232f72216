// Package heuristics implements the deterministic extraction functions used
// whenever the generative model is unavailable or returns output that fails
// validation. Every function is pure: same text and lexicon in, same result
// out. The per-turn annotation path and the final-analysis fallback path call
// these functions identically.
package heuristics

import (
	"strings"

	"github.com/crafty-arl/etherith/internal/lexicon"
)

// maxScoredCues caps how many cultural cues contribute to the significance
// score.
const maxScoredCues = 5

// ExtractCulturalCues returns every cultural lexicon term found in text,
// case-insensitive, in lexicon order, deduplicated.
func ExtractCulturalCues(lex *lexicon.Lexicon, text string) []string {
	return matchAll(lex.CulturalCues, text)
}

// ClassifyEmotion returns the first emotion category, in lexicon declaration
// order, with at least one keyword match. Match count does not matter; the
// ordering is the tie-break policy. Returns "" when nothing matches.
func ClassifyEmotion(lex *lexicon.Lexicon, text string) string {
	lower := strings.ToLower(text)
	for _, cat := range lex.Emotions {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat.Name
			}
		}
	}
	return ""
}

// ExtractPeople returns every person term found in text, in lexicon order,
// deduplicated.
func ExtractPeople(lex *lexicon.Lexicon, text string) []string {
	return matchAll(lex.People, text)
}

// ExtractLocation returns the first location term found in text, or "".
func ExtractLocation(lex *lexicon.Lexicon, text string) string {
	return matchFirst(lex.Locations, text)
}

// ExtractTemporalContext returns the first temporal term found in text, or "".
func ExtractTemporalContext(lex *lexicon.Lexicon, text string) string {
	return matchFirst(lex.Temporal, text)
}

// ExtractPractices returns every practice term found in text, in lexicon
// order, deduplicated.
func ExtractPractices(lex *lexicon.Lexicon, text string) []string {
	return matchAll(lex.Practices, text)
}

// SignificanceScore computes a cultural significance score from the number of
// extracted cues: base 0.5 plus 0.1 per cue, cue count capped, result clamped
// to [0, 1].
func SignificanceScore(cues []string) float64 {
	n := len(cues)
	if n > maxScoredCues {
		n = maxScoredCues
	}
	score := 0.5 + 0.1*float64(n)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// GenerateTags derives suggested tags from previously extracted entities:
// cues, practices, the dominant emotion, and people, deduplicated, capped at
// eight.
func GenerateTags(cues, practices, people []string, emotion string) []string {
	tags := []string{}
	seen := map[string]bool{}
	add := func(t string) {
		if t == "" || seen[t] || len(tags) >= 8 {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}
	for _, c := range cues {
		add(c)
	}
	for _, p := range practices {
		add(p)
	}
	add(emotion)
	for _, p := range people {
		add(p)
	}
	return tags
}

// GenerateTitle builds a short memory title from the first person and first
// cue found, falling back through partial pairings to a generic title.
func GenerateTitle(people, cues []string) string {
	switch {
	case len(people) > 0 && len(cues) > 0:
		return titleCase(people[0]) + "'s " + titleCase(cues[0])
	case len(people) > 0:
		return "A Memory of " + titleCase(people[0])
	case len(cues) > 0:
		return "A " + titleCase(cues[0]) + " Remembered"
	default:
		return "A Cultural Memory"
	}
}

// DetermineCategory maps extracted entities to an archival category.
func DetermineCategory(cues, practices []string) string {
	for _, c := range cues {
		switch c {
		case "family", "ancestral":
			return "family_heritage"
		case "spiritual", "sacred", "belief":
			return "spiritual_tradition"
		}
	}
	if len(practices) > 0 {
		return "cultural_practice"
	}
	if len(cues) > 0 {
		return "cultural_tradition"
	}
	return "personal_memory"
}

// matchAll returns every term appearing in text as a case-insensitive
// substring, preserving term order, deduplicated.
func matchAll(terms []string, text string) []string {
	lower := strings.ToLower(text)
	var out []string
	seen := map[string]bool{}
	for _, term := range terms {
		if seen[term] {
			continue
		}
		if strings.Contains(lower, term) {
			seen[term] = true
			out = append(out, term)
		}
	}
	return out
}

// matchFirst returns the first term appearing in text, or "".
func matchFirst(terms []string, text string) string {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return term
		}
	}
	return ""
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
