// Package prompt renders the model prompts. The heading layout in the web
// research prompt is what the extractor package parses back out.
package prompt

import (
	"fmt"
	"strings"

	"research-assistant/internal/models"
)

// Build renders the web research prompt for query over context
func Build(query, context string) string {
	return fmt.Sprintf(models.ResearchPromptTemplate, context, query)
}

// BuildDocument renders the document analysis prompt
func BuildDocument(query, documentName, text string) string {
	return fmt.Sprintf(models.DocumentPromptTemplate, documentName, text, query)
}

// WebContext joins search results as "title: body (href)" lines
func WebContext(results []models.SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", r.Title, r.Body, r.Href))
	}
	return strings.Join(lines, models.ContextSeparator)
}

// WithUserContext puts caller-supplied context ahead of the search context
func WithUserContext(userContext, webContext string) string {
	if strings.TrimSpace(userContext) == "" {
		return webContext
	}
	return fmt.Sprintf(models.UserContextLabel, strings.TrimSpace(userContext)) + webContext
}
