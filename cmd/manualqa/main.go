package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaporlogic/manualqa/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "manualqa",
		Short: "Question answering over technical manuals",
		Long:  "manualqa indexes dehumidifier and HVAC manuals and answers questions about them using a local language model",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.ChatCmd())
	rootCmd.AddCommand(cli.CollectionCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
