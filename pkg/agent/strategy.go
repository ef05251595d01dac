package agent

// strategy is one generation branch: a system prompt template plus sampling
// parameters. The four branches share the message-assembly rules in
// buildMessages; only the entries in this table differ.
type strategy struct {
	systemPrompt string // fmt template with one %s slot for the context block
	temperature  float64
	maxTokens    int
}

var strategies = map[Mode]strategy{
	ModeQA: {
		systemPrompt: qaSystemPrompt,
		temperature:  0.1,
		maxTokens:    4096,
	},
	ModeResearch: {
		systemPrompt: researchSystemPrompt,
		temperature:  0.2,
		maxTokens:    8192,
	},
	ModeSummarise: {
		systemPrompt: summariseSystemPrompt,
		temperature:  0.1,
		maxTokens:    4096,
	},
	ModeAnalyse: {
		systemPrompt: analyseSystemPrompt,
		temperature:  0.1,
		maxTokens:    8192,
	},
}
