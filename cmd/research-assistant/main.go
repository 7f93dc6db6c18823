// Package main is the entry point for the research-assistant CLI.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"research-assistant/internal/config"
	"research-assistant/internal/llmservice"
	"research-assistant/internal/rag"
	"research-assistant/internal/search"
	"research-assistant/internal/workerpool"
)

const configFilePath = "./configs/config.yaml"

var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Answer research questions from web search or an uploaded document",
	Long: `research-assistant searches the web (or reads an uploaded document),
asks a language model to answer the question from that context and returns
a summary, the sources used and a description of the process.

Run "serve" for the HTTP API or "ask" for a single question from the shell.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", configFilePath, "path to the YAML config file")
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the --config file and applies the configured log level
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Interface("config", redacted(cfg)).Msg("Loaded config")
	return cfg, nil
}

// redacted returns a copy of cfg that is safe to log
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.Chat.Key != "" {
		c.Chat.Key = "***"
	}
	if c.Document.Key != "" {
		c.Document.Key = "***"
	}
	return c
}

// newRAG builds the research pipeline. The document model is optional: a
// missing API key only disables document analysis.
func newRAG(ctx context.Context, cfg *config.Config) (*rag.RAG, *workerpool.Pool, error) {
	chat := llmservice.NewChatClient(cfg.Chat)

	var doc rag.DocumentModel
	gemini, err := llmservice.NewGeminiClient(ctx, cfg.Document)
	switch {
	case errors.Is(err, llmservice.ErrMissingAPIKey):
		log.Warn().Msg("No document model API key set, document uploads will fall back to web search")
	case err != nil:
		return nil, nil, err
	default:
		doc = gemini
	}

	provider := search.NewDuckDuckGo(cfg.Search)
	searcher := search.NewSearcher(provider, search.PolicyFromConfig(cfg.Search.Retry), search.Options{
		MaxResults: cfg.Search.MaxResults,
		Region:     cfg.Search.Region,
		SafeSearch: cfg.Search.SafeSearch,
		Backend:    cfg.Search.Backend,
	})

	pool := workerpool.New(cfg.Search.Workers)
	return rag.NewRAG(chat, doc, searcher, pool, cfg), pool, nil
}
