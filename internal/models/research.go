package models

// SearchResult is a single web search hit, in provider order
type SearchResult struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Href  string `json:"href"`
}

// Document is an uploaded file handed to document mode
type Document struct {
	Name string
	Data []byte
}

// ResearchRequest is built at the request boundary and not modified afterwards
type ResearchRequest struct {
	Query    string
	Context  string
	Model    string
	Document *Document
}

// Page is the text of one page (or sheet, slide) of an uploaded document
type Page struct {
	Content    string
	PageNumber int
}

// ParsedSections holds the sections recovered from a model reply
type ParsedSections struct {
	Summary    string
	Process    string
	SourcesRaw string
}

// SourceRecord is a citation returned to the caller
type SourceRecord struct {
	Title      string `json:"title"`
	Href       string `json:"href"`
	Body       string `json:"body"`
	PageImage  string `json:"pageImage,omitempty"`
	PageNumber string `json:"pageNumber,omitempty"`
}

type ResearchResponse struct {
	Summary string         `json:"summary"`
	Sources []SourceRecord `json:"sources"`
	Process string         `json:"process"`
}

// SourcesFromResults copies raw search results into source records
func SourcesFromResults(results []SearchResult) []SourceRecord {
	sources := make([]SourceRecord, 0, len(results))
	for _, r := range results {
		sources = append(sources, SourceRecord{
			Title: r.Title,
			Href:  r.Href,
			Body:  r.Body,
		})
	}
	return sources
}
