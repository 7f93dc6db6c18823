package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"research-assistant/internal/config"
	"research-assistant/internal/extractor"
	"research-assistant/internal/llmservice"
	"research-assistant/internal/models"
	"research-assistant/internal/parser"
	"research-assistant/internal/prompt"
	"research-assistant/internal/workerpool"
)

var (
	ErrMissingQuery        = errors.New("query is required")
	ErrMissingDocument     = errors.New("file is required")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrUnreadableDocument  = errors.New("document could not be read")
)

// IsClientError reports whether err was caused by bad input rather than a failing dependency
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingQuery) ||
		errors.Is(err, ErrMissingDocument) ||
		errors.Is(err, ErrUnsupportedDocument) ||
		errors.Is(err, ErrUnreadableDocument)
}

type ChatModel interface {
	Invoke(ctx context.Context, model, prompt string) (string, error)
}

type DocumentModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// WebSearcher never fails; an empty slice means no context was found
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) []models.SearchResult
}

type RAG struct {
	chat     ChatModel
	doc      DocumentModel
	searcher WebSearcher
	pool     *workerpool.Pool
	cfg      *config.Config

	extractPages func(filename string, data []byte) ([]models.Page, error)
}

// NewRAG wires the orchestrator. doc may be nil, in which case document
// requests always fall back to web search.
func NewRAG(chat ChatModel, doc DocumentModel, searcher WebSearcher, pool *workerpool.Pool, cfg *config.Config) *RAG {
	return &RAG{
		chat:         chat,
		doc:          doc,
		searcher:     searcher,
		pool:         pool,
		cfg:          cfg,
		extractPages: parser.ExtractPages,
	}
}

// Research picks document mode when a document is attached, web mode otherwise
func (r *RAG) Research(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error) {
	if req.Document != nil {
		return r.DocumentResearch(ctx, req)
	}
	return r.WebResearch(ctx, req)
}

// WebResearch searches the web, prompts the chat model with the results and
// parses its reply. Sources fall back to the raw results when the reply
// lists none.
func (r *RAG) WebResearch(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrMissingQuery
	}
	logger := log.Ctx(ctx).With().Str("query", req.Query).Logger()

	// searches sleep between calls, so they run on the pool rather than the request goroutine
	results, err := workerpool.Submit(ctx, r.pool, func(ctx context.Context) []models.SearchResult {
		return r.searcher.Search(ctx, req.Query, r.cfg.Search.MaxResults)
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	logger.Info().Int("results", len(results)).Msg("Web search finished")

	webContext := prompt.WithUserContext(req.Context, prompt.WebContext(results))
	p := prompt.Build(req.Query, webContext)
	logger.Debug().Str("prompt", p).Msg("Prompt sent to chat model")

	reply, err := r.chat.Invoke(ctx, req.Model, p)
	if err != nil {
		logger.Error().Err(err).Msg("Chat model failed")
		return nil, err
	}

	sections := extractor.Extract(reply)
	return &models.ResearchResponse{
		Summary: sections.Summary,
		Sources: extractor.SourcesOrFallback(sections.SourcesRaw, models.SourcesFromResults(results)),
		Process: sections.Process,
	}, nil
}

// DocumentResearch analyzes an uploaded document with the document model.
// Any model failure, quota or otherwise, falls back to WebResearch.
func (r *RAG) DocumentResearch(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrMissingQuery
	}
	if req.Document == nil || len(req.Document.Data) == 0 {
		return nil, ErrMissingDocument
	}
	name := req.Document.Name
	logger := log.Ctx(ctx).With().Str("query", req.Query).Str("document", name).Logger()

	pages, err := r.extractPages(name, req.Document.Data)
	// only the extracted text is kept past this point
	req.Document.Data = nil
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	text := parser.JoinPages(pages)
	logger.Info().Int("pages", len(pages)).Int("chars", len(text)).Msg("Document text extracted")

	if text == "" {
		return r.fallback(ctx, req, name, "no text could be extracted")
	}
	if r.doc == nil {
		return r.fallback(ctx, req, name, "no document model is configured")
	}

	reply, err := r.doc.Generate(ctx, prompt.BuildDocument(req.Query, name, text))
	if err != nil {
		reason := "document model error: " + err.Error()
		if llmservice.IsQuotaError(err) {
			reason = "document model quota exceeded"
		}
		logger.Warn().Err(err).Msg("Document analysis failed, falling back to web search")
		return r.fallback(ctx, req, name, reason)
	}

	sections := extractor.Extract(reply)
	summary := sections.Summary
	if summary == "" {
		summary = strings.TrimSpace(reply)
	}
	process := sections.Process
	if process == "" {
		process = fmt.Sprintf("Extracted text from %d page(s) of %s and analyzed it with %s.", len(pages), name, r.doc.Model())
	}

	return &models.ResearchResponse{
		Summary: summary,
		Sources: []models.SourceRecord{{
			Title:      name,
			Body:       excerpt(text, r.cfg.Document.ExcerptChars),
			PageNumber: models.DocumentPageRef,
		}},
		Process: process,
	}, nil
}

func (r *RAG) fallback(ctx context.Context, req models.ResearchRequest, name, reason string) (*models.ResearchResponse, error) {
	resp, err := r.WebResearch(ctx, models.ResearchRequest{
		Query:   req.Query,
		Context: req.Context,
		Model:   req.Model,
	})
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("Document analysis of %s was unavailable (%s), so this answer falls back to web search.", name, reason)
	resp.Process = strings.TrimSpace(note + "\n\n" + resp.Process)
	return resp, nil
}

// excerpt returns the first n characters of text followed by an ellipsis
func excerpt(text string, n int) string {
	runes := []rune(text)
	if n > 0 && len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + models.ExcerptEllipsis
}
