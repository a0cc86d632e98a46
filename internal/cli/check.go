package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/config"
)

func newCheckCmd() *cobra.Command {
	var (
		infile      string
		attachments bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a task file without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkTasks(infile, attachments)
		},
	}

	cmd.Flags().StringVar(&infile, "infile", "", "input task file (.json array or .jsonl)")
	cmd.Flags().BoolVar(&attachments, "attachments", false, "verify referenced attachment files exist on disk")
	_ = cmd.MarkFlagRequired("infile")

	return cmd
}

func checkTasks(infile string, checkAttachments bool) error {
	tasks, err := config.LoadTasks(infile)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	withGolden := 0
	withFiles := 0
	missing := 0
	for _, t := range tasks {
		if t.Answer != "" {
			withGolden++
		}
		if len(t.Attachments) > 0 {
			withFiles++
		}
		if checkAttachments {
			for _, a := range t.Attachments {
				if _, err := os.Stat(a); err != nil {
					fmt.Fprintf(os.Stderr, "  missing attachment for task %q: %s\n", t.Key(), a)
					missing++
				}
			}
		}
	}

	fmt.Printf("valid: %d tasks, %d with golden answers, %d with attachments\n",
		len(tasks), withGolden, withFiles)
	if missing > 0 {
		return fmt.Errorf("%d attachments missing on disk", missing)
	}
	return nil
}
