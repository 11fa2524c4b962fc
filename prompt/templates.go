package prompt

// Built-in template names used by the specialized agents.
const (
	TemplateFactExtraction    = "fact_extraction"
	TemplateFactResearch      = "fact_extraction_research"
	TemplateSentimentAnalysis = "sentiment_analysis"
	TemplateSynthesis         = "synthesis"
	TemplateSummarize         = "summarize"
)

// builtinTemplates are the task templates the specialized agents compose
// their instructions from. The JSON shapes requested here are what the
// agents' parsers expect back from the completion backend.
var builtinTemplates = map[string]string{
	TemplateFactExtraction: `Extract all salient factual information from the following text: '{text}'. ` +
		`Identify distinct factual statements, key entities mentioned, and provide a concise summary of the factual content. ` +
		`Your response MUST be a JSON object containing ONLY the following keys: ` +
		`'facts' (a list of strings, each a distinct factual statement), ` +
		`'entities' (a list of relevant entities mentioned, e.g. people, organizations, dates, locations), ` +
		`'statistics' (a list of numerical data or statistics extracted), ` +
		`'summary' (a brief summary of the extracted facts), ` +
		`'key_points' (a list of key points derived from the facts). ` +
		`DO NOT include any additional text, explanations or Markdown formatting.`,

	TemplateFactResearch: `Based on the following research results about '{query}', extract key facts.` + "\n\n" +
		`Research material:` + "\n{material}\n\n" +
		`Your response MUST be a JSON object containing ONLY the following keys: ` +
		`'facts' (a list of strings), 'entities' (a list of strings), ` +
		`'statistics' (a list of strings), 'summary' (a string), 'key_points' (a list of strings). ` +
		`DO NOT include any additional text, explanations or Markdown formatting.`,

	TemplateSentimentAnalysis: `Analyze the sentiment of the following text: '{text}'.` + "\n\n" +
		`Additional context: {context}` + "\n\n" +
		`Return the primary sentiment as 'positive', 'negative', 'neutral' or 'mixed', ` +
		`along with an overall confidence score between 0 and 1. ` +
		`Also identify the specific emotional 'tone(s)' present (e.g. 'joy', 'anger', 'sadness', 'excitement') ` +
		`and provide a 'justification' explaining why that sentiment was assigned, ` +
		`citing specific parts of the text if possible. ` +
		`Your response MUST be a JSON object containing ONLY the keys ` +
		`'sentiment', 'confidence', 'tone' (a list of strings) and 'justification'. ` +
		`DO NOT include any additional text, explanations or Markdown formatting.`,

	TemplateSynthesis: `Original query: {query}` + "\n\n" +
		`Gathered material from specialized agents and capabilities:` + "\n{material}\n\n" +
		`Synthesize one comprehensive, unified answer to the original query from the material above. ` +
		`Respond with the answer text only, no preamble and no Markdown formatting.`,

	TemplateSummarize: `Summarize the following text: {text}`,
}

// NewBuiltinRegistry returns a registry pre-populated with the agents' task
// templates. Additional templates can be registered on top.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(builtinTemplates)
	return r
}
