package brief

const briefSystemPrompt = `You are a news desk editor. Given one day's news headlines with the locations and stock tickers linked to them, write a daily brief.

Rules for the paragraph:
- Single paragraph, concise and neutral
- Summarize the day's overall picture across news, markets, and places in the spotlight

Rules for bullets:
- 3 to 5 bullet points
- Each bullet covers a distinct story or theme
- Mention linked tickers and locations where relevant
- One sentence per bullet

Output as JSON only, no other text:
{
  "paragraph": "daily brief paragraph",
  "bullets": ["story 1", "story 2", "story 3"]
}`

type Input struct {
	Headline    string
	Description string
	Location    string
	Tickers     []string
}

type Result struct {
	Paragraph string
	Bullets   []string
	ModelUsed string
}

type Client interface {
	Summarize(items []Input) (*Result, error)
}
