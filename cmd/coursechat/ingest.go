package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasingkarma/coursechat/internal/rag"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Load course documents into the corpus",
		Args:  cobra.ExactArgs(1),
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

			n, err := system.IngestDirectory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			analytics := system.Analytics()
			fmt.Printf("Added %d courses (%d total)\n", n, analytics.TotalCourses)
			for _, title := range analytics.CourseTitles {
				fmt.Printf("  %s\n", title)
			}
			return nil
		},
	}
}
