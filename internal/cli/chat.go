package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaporlogic/manualqa/internal/config"
	"github.com/vaporlogic/manualqa/internal/service"
)

// ChatCmd returns the chat command
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long:  "Start a terminal question-answering session over the indexed manuals",
		RunE:  runChat,
	}

	cmd.Flags().IntP("k", "k", 0, "Number of chunks to retrieve per question (default from config)")
	cmd.Flags().Bool("show-chunks", false, "Print the retrieved chunks with each answer")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	k, _ := cmd.Flags().GetInt("k")
	showChunks, _ := cmd.Flags().GetBool("show-chunks")

	idx, pool, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	pipeline := service.NewPipeline(generator, idx, service.PipelineConfig{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Sampling:    cfg.Sampling,
		DefaultK:    cfg.RetrievalK,
	})

	log.Printf("loading model %s...", cfg.GenerationModel)
	if err := pipeline.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	fmt.Println("Ask a question about the manuals (type 'exit' to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		result, err := pipeline.Query(ctx, question, k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println()
		fmt.Println(result.Answer)
		if len(result.Sources) > 0 {
			fmt.Printf("\nSources: %s\n", strings.Join(result.Sources, ", "))
		}
		if showChunks {
			for _, doc := range result.RetrievedDocs {
				fmt.Printf("\n--- %s (chunk %d, score %.3f)\n%s\n",
					doc.Metadata.Source, doc.Metadata.ChunkID, doc.Score, doc.Content)
			}
		}
		fmt.Println()
	}
}
