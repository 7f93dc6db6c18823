package extractor

import (
	"regexp"
	"strings"

	"research-assistant/internal/models"
)

var sourceLineRe = regexp.MustCompile(models.SourceLineRegex)

// ParseSources reads "title (url)" lines, optionally bulleted with a dash.
// Other lines are skipped. An empty result means the caller must fall back
// to its raw sources.
func ParseSources(raw string) []models.SourceRecord {
	sources := make([]models.SourceRecord, 0)
	for _, line := range strings.Split(raw, "\n") {
		m := sourceLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sources = append(sources, models.SourceRecord{
			Title: strings.TrimSpace(m[1]),
			Href:  strings.TrimSpace(m[2]),
		})
	}
	return sources
}

// SourcesOrFallback parses raw and substitutes fallback when nothing matched
func SourcesOrFallback(raw string, fallback []models.SourceRecord) []models.SourceRecord {
	if parsed := ParseSources(raw); len(parsed) > 0 {
		return parsed
	}
	if fallback == nil {
		return []models.SourceRecord{}
	}
	return fallback
}
