package models

// Section headings, in the order the model is asked to emit them
const (
	HeadingSummary   = "Summary"
	HeadingFindings  = "Key Findings"
	HeadingTrends    = "Trends in Industry"
	HeadingFuture    = "Future Trends"
	HeadingProcess   = "Process"
	HeadingSources   = "Sources"
	ContextSeparator = "\n"
	ExcerptEllipsis  = "..."
	DocumentPageRef  = "1"
)

// SectionHeadings is the fixed heading sequence shared by the prompt and the extractor
var SectionHeadings = []string{
	HeadingSummary,
	HeadingFindings,
	HeadingTrends,
	HeadingFuture,
	HeadingProcess,
	HeadingSources,
}

const (
	SourceLineRegex = `^\s*-?\s*(.+?)\s*\((https?://[^)]+)\)`
	ThinkTag        = `(?s)<think>.*?</think>`
)

var (
	ResearchPromptTemplate = `You are a helpful research assistant. Using the web search context below, write a detailed, multi-paragraph summary (at least 8 sentences) answering the research question. Within your summary, include the following clearly marked sub-sections:
- Key Findings: (as a short paragraph or bullet points)
- Trends in Industry: (as a short paragraph or bullet points)
- Future Trends: (as a short paragraph or bullet points)
After the summary, provide a 'Process' section explaining step-by-step how you used the context to generate your answer.
Format:
Summary:
[Your detailed summary here]
Key Findings:
[Bullets or paragraph]
Trends in Industry:
[Bullets or paragraph]
Future Trends:
[Bullets or paragraph]
Process:
[Step-by-step explanation]
Sources:
[List the main sources you used, with title and URL]
Do not include any text before or after these sections.
Web Search Context:
%s

Research Question:
%s
`

	DocumentPromptTemplate = `You are a helpful research assistant analyzing the document "%s". Answer the research question using only the document text below.
Provide:
Summary:
[A detailed, multi-paragraph summary answering the question]
Key Findings:
[The most important findings as bullets, each supported by a direct quote and the page it appears on]
Process:
[Step-by-step explanation of how you used the document to answer]
Do not include any text before or after these sections.
Document Text:
%s

Research Question:
%s
`

	UserContextLabel = "User Provided Context:\n%s\n\n"
)
