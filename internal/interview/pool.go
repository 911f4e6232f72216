package interview

// Canned question pool used whenever the model is unavailable or its response
// fails contract validation. Three questions per stage; selection is uniform
// via the generator's injected picker so tests can pin it.

type pooledQuestion struct {
	question string
	reason   string
}

var questionPool = map[int][]pooledQuestion{
	1: {
		{
			question: "What emotions come up for you when you think back to that moment?",
			reason:   "Inviting the speaker to name their feelings deepens the emotional ground of the memory.",
		},
		{
			question: "Who were you with, and what did their presence mean to you?",
			reason:   "Personal connections anchor the emotional weight of a memory.",
		},
		{
			question: "Can you describe what that moment felt like, in your own words?",
			reason:   "Open sensory recall draws out the personal significance of the experience.",
		},
	},
	2: {
		{
			question: "Were there particular traditions or customs that shaped this memory?",
			reason:   "Naming traditions surfaces the cultural practices embedded in the memory.",
		},
		{
			question: "When did this take place, and was the timing itself meaningful in your culture?",
			reason:   "Seasonal and ceremonial timing often carries cultural weight of its own.",
		},
		{
			question: "How did your family or community take part in what was happening?",
			reason:   "Family dynamics reveal how cultural knowledge moved through the moment.",
		},
	},
	3: {
		{
			question: "How has this memory shaped who you are today?",
			reason:   "Connecting past to present surfaces the memory's role in personal identity.",
		},
		{
			question: "What would you want future generations to understand about this experience?",
			reason:   "Framing the memory as legacy clarifies what the speaker most wants preserved.",
		},
		{
			question: "What do you carry forward from that time in how you live now?",
			reason:   "Tracing continuity shows the lasting significance of the tradition.",
		},
	},
}

// stageFocus is the thematic framing baked into each stage's prompt.
var stageFocus = map[int]string{
	1: "emotional depth and personal connection: how the moment felt, and who mattered in it",
	2: "cultural specificity: traditions, customs, timing, and family or community dynamics",
	3: "personal impact and legacy: identity, meaning carried forward, and what should be preserved",
}
