// Package extractor turns free-text model replies back into typed fields.
// Parsing is lenient: text that ignores the heading layout yields empty
// fields, never an error.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"research-assistant/internal/models"
)

var (
	thinkRe    = regexp.MustCompile(models.ThinkTag)
	sectionRes = compileSectionPatterns(models.SectionHeadings)
)

// headingLead is what may precede a heading on its line: indentation and
// markdown markers such as "##" or "**"
const headingLead = `[ \t*#]*`

// compileSectionPatterns builds one pattern per heading that captures the
// shortest body up to any later heading or the end of the text. Headings
// only count at the start of a line, so "resources:" or "the process:"
// inside a body do not end it.
func compileSectionPatterns(headings []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(headings))
	for i, h := range headings {
		end := "$"
		if rest := headings[i+1:]; len(rest) > 0 {
			quoted := make([]string, len(rest))
			for j, n := range rest {
				quoted[j] = regexp.QuoteMeta(n)
			}
			end = fmt.Sprintf(`\n%s(?:%s)\**:|$`, headingLead, strings.Join(quoted, "|"))
		}
		res[i] = regexp.MustCompile(fmt.Sprintf(`(?is)(?:^|\n)%s%s\**:\**[ \t]*(.*?)(?:%s)`, headingLead, regexp.QuoteMeta(h), end))
	}
	return res
}

// Sections returns the trimmed body of every heading, keyed by heading name.
// Absent headings map to "".
func Sections(text string) map[string]string {
	text = thinkRe.ReplaceAllString(text, "")
	out := make(map[string]string, len(models.SectionHeadings))
	for i, h := range models.SectionHeadings {
		if m := sectionRes[i].FindStringSubmatch(text); m != nil {
			out[h] = strings.TrimSpace(m[1])
		} else {
			out[h] = ""
		}
	}
	return out
}

// Extract parses a model reply. Non-empty Key Findings, Trends in Industry
// and Future Trends bodies are folded into Summary under their own heading.
func Extract(text string) models.ParsedSections {
	s := Sections(text)

	var summary strings.Builder
	summary.WriteString(s[models.HeadingSummary])
	for _, h := range []string{models.HeadingFindings, models.HeadingTrends, models.HeadingFuture} {
		if body := s[h]; body != "" {
			fmt.Fprintf(&summary, "\n\n%s:\n%s", h, body)
		}
	}

	return models.ParsedSections{
		Summary:    strings.TrimSpace(summary.String()),
		Process:    s[models.HeadingProcess],
		SourcesRaw: s[models.HeadingSources],
	}
}
