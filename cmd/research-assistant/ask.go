package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"research-assistant/internal/helper"
	"research-assistant/internal/models"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one research question and print the JSON response",
	Long: `Ask runs a single research request without starting the server. With
--file the document is analyzed instead of searching the web.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		file, _ := cmd.Flags().GetString("file")
		model, _ := cmd.Flags().GetString("model")
		userContext, _ := cmd.Flags().GetString("context")
		if query == "" {
			return fmt.Errorf("--query is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		req := models.ResearchRequest{Query: query, Context: userContext, Model: model}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			req.Document = &models.Document{Name: filepath.Base(file), Data: data}
		}

		r, pool, err := newRAG(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close(cmd.Context())

		resp, err := r.Research(cmd.Context(), req)
		if err != nil {
			return err
		}
		helper.PrettyPrint(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	askCmd.Flags().String("query", "", "research question")
	askCmd.Flags().String("file", "", "document to analyze instead of searching the web")
	askCmd.Flags().String("model", "", "chat model override")
	askCmd.Flags().String("context", "", "extra context placed ahead of the search results")

	rootCmd.AddCommand(askCmd)
}
