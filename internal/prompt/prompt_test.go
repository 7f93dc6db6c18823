package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/internal/models"
)

func TestBuild_IsDeterministic(t *testing.T) {
	assert.Equal(t, Build("q", "ctx"), Build("q", "ctx"))
}

func TestBuild_HeadingsInOrder(t *testing.T) {
	p := Build("What is Go?", "Go: a language (https://go.dev)")

	last := -1
	for _, h := range models.SectionHeadings {
		idx := strings.Index(p, "\n"+h+":\n")
		require.NotEqual(t, -1, idx, "heading %q missing", h)
		assert.Greater(t, idx, last, "heading %q out of order", h)
		last = idx
	}
	assert.Contains(t, p, "at least 8 sentences")
	assert.Contains(t, p, "Do not include any text before or after these sections.")
}

func TestBuild_InterpolatesVerbatimAtEnd(t *testing.T) {
	ctx := "Title: body with %s and {{braces}} (http://x)"
	p := Build("Why 100%?", ctx)

	assert.Contains(t, p, "Web Search Context:\n"+ctx+"\n")
	assert.True(t, strings.HasSuffix(p, "Research Question:\nWhy 100%?\n"))
	assert.Less(t, strings.Index(p, "Sources:\n"), strings.Index(p, ctx))
}

func TestBuildDocument(t *testing.T) {
	p := BuildDocument("What is KNN?", "ml.pdf", "page one text")
	assert.Contains(t, p, `"ml.pdf"`)
	assert.Contains(t, p, "Document Text:\npage one text")
	assert.Contains(t, p, "quote")
	assert.Contains(t, p, "page")
	assert.True(t, strings.HasSuffix(p, "Research Question:\nWhat is KNN?\n"))
}

func TestWebContext(t *testing.T) {
	got := WebContext([]models.SearchResult{
		{Title: "A", Body: "B", Href: "http://x"},
		{Title: "C", Body: "D", Href: "http://y"},
	})
	assert.Equal(t, "A: B (http://x)\nC: D (http://y)", got)
	assert.Empty(t, WebContext(nil))
}

func TestWithUserContext(t *testing.T) {
	assert.Equal(t, "web", WithUserContext("  ", "web"))
	assert.Equal(t, "User Provided Context:\nmine\n\nweb", WithUserContext(" mine ", "web"))
}
