package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/chasingkarma/coursechat/internal/rag"
)

func chatCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			system, err := rag.New(cfg)
			if err != nil {
				return err
			}
			defer system.Shutdown()

			if docsDir != "" {
				if _, err := system.IngestDirectory(cmd.Context(), docsDir); err != nil {
					log.Printf("Document ingestion failed: %v", err)
				}
			}

			return runChat(cmd, system)
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "directory of course documents to load on startup")
	return cmd
}

func runChat(cmd *cobra.Command, system *rag.System) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("Ask about course materials. Type 'exit' to quit, 'clear' to reset the session.")

	sessionID := ""
	for {
		input, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			// EOF on ctrl-d
			return nil
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			if sessionID != "" {
				system.ClearSession(sessionID)
			}
			sessionID = ""
			fmt.Println("Session cleared.")
			continue
		}
		line.AppendHistory(input)

		answer := system.Query(cmd.Context(), input, sessionID)
		sessionID = answer.SessionID

		fmt.Println(answer.Answer)
		if len(answer.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range answer.Sources {
				if src.Link != "" {
					fmt.Printf("  %s (%s)\n", src.Label, src.Link)
				} else {
					fmt.Printf("  %s\n", src.Label)
				}
			}
		}
		fmt.Println()
	}
}
