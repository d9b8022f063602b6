// Package main provides the coursechat CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "coursechat",
		Short:   "Course materials chat backend",
		Version: version,
		Long: `coursechat answers questions about course materials using
semantic search over ingested documents.

  coursechat serve             Start the HTTP API server
  coursechat ingest <dir>      Load course documents into the corpus
  coursechat chat              Interactive chat session`,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")

	rootCmd.AddCommand(
		serveCmd(),
		ingestCmd(),
		chatCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
