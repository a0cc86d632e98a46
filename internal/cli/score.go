package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/config"
	"github.com/Jyzan/benchrun/internal/judge"
	"github.com/Jyzan/benchrun/internal/reporter"
)

func newScoreCmd() *cobra.Command {
	var (
		envFile string
		details bool
	)

	cmd := &cobra.Command{
		Use:   "score FILE [FILE...]",
		Short: "Compute accuracy for one or more results files",
		Long: `Score compares each agent answer against the golden answer:
exact matches pass immediately, everything else is decided by an LLM
judge. Malformed entries are reported as data-quality errors and the
rest of the file is still scored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("env") && cfg.EnvFile != "" {
				envFile = cfg.EnvFile
			}

			api, err := config.LoadAPI(envFile)
			if err != nil {
				return err
			}
			judgeModel := api.JudgeModel
			if cfg.JudgeModel != "" {
				judgeModel = cfg.JudgeModel
			}

			j, err := judge.New(judge.Config{
				APIKey:  api.Key,
				BaseURL: api.BaseURL,
				Model:   judgeModel,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			textRep := reporter.NewTextReporter(os.Stdout, isTerminal())
			var reports []*judge.FileReport
			for _, file := range args {
				fr, err := j.ScoreFile(ctx, file)
				if err != nil {
					return fmt.Errorf("score %s: %w", file, err)
				}
				textRep.PrintScore(fr, details)
				reports = append(reports, fr)
			}
			textRep.PrintComparison(reports)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env", ".env", "env file with API credentials")
	cmd.Flags().BoolVar(&details, "details", false, "print per-entry verdicts")

	return cmd
}
