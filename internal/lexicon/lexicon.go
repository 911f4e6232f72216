// Package lexicon holds the fixed keyword tables the deterministic extraction
// heuristics run against. Tables are plain data, injected into the functions
// that use them so they can be versioned or localized without touching any
// control flow. The compiled-in default is the only table shipped today.
package lexicon

// EmotionCategory pairs an emotion label with the keywords that indicate it.
// Declaration order across categories is significant: classification returns
// the first category with any match, not the category with the most matches.
type EmotionCategory struct {
	Name     string
	Keywords []string
}

// Lexicon is one versioned set of keyword tables.
type Lexicon struct {
	Version string

	CulturalCues []string
	Emotions     []EmotionCategory
	People       []string
	Locations    []string
	Temporal     []string
	Practices    []string
}

// Default returns the built-in v1 table. Callers must treat the returned
// value as read-only; it is shared across concurrent calls.
func Default() *Lexicon {
	return &defaultLexicon
}

var defaultLexicon = Lexicon{
	Version: "v1",

	CulturalCues: []string{
		"tradition", "culture", "heritage", "custom", "ritual", "ceremony",
		"belief", "value", "ancestral", "tribal", "indigenous", "family",
		"community", "spiritual", "sacred", "historical",
	},

	Emotions: []EmotionCategory{
		{Name: "joy", Keywords: []string{"happy", "joy", "laugh", "celebrate", "fun", "delight", "smile"}},
		{Name: "nostalgia", Keywords: []string{"remember", "memory", "miss", "back then", "childhood", "used to", "those days"}},
		{Name: "pride", Keywords: []string{"proud", "pride", "honor", "achievement", "accomplish"}},
		{Name: "love", Keywords: []string{"love", "dear", "cherish", "adore", "heart"}},
		{Name: "reverence", Keywords: []string{"respect", "revere", "sacred", "holy", "blessing", "worship"}},
	},

	People: []string{
		"grandmother", "grandfather", "grandma", "grandpa", "mother", "father",
		"mom", "dad", "aunt", "uncle", "sister", "brother", "cousin", "elder",
		"ancestor", "friend", "neighbor", "teacher",
	},

	Locations: []string{
		"village", "city", "town", "home", "homeland", "church", "temple",
		"mosque", "kitchen", "farm", "mountain", "river", "island", "country",
	},

	Temporal: []string{
		"winter", "spring", "summer", "autumn", "fall", "harvest", "new year",
		"solstice", "holiday", "festival", "wedding", "birthday", "sunday",
		"evening", "morning", "childhood",
	},

	Practices: []string{
		"cooking", "baking", "weaving", "dancing", "singing", "storytelling",
		"praying", "feast", "recipe", "craft", "song", "dance", "prayer",
		"gathering",
	},
}
