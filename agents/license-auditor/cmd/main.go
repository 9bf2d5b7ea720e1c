package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	licenseauditor "video-license-agent/agents/license-auditor"
	"video-license-agent/shared/config"
	"video-license-agent/shared/scheduler"
)

const defaultOutput = "license-analysis-results.xlsx"

func main() {
	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "license-auditor",
		Short:        "Audit licensing terms for YouTube, TikTok and Twitter videos listed in a workbook",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(), newServeCmd(), newRunOnceCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze <input.xlsx>",
		Short: "Analyze one workbook and write the results workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			input, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			processor, err := licenseauditor.NewProcessor(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out, b, err := processor.ProcessWorkbook(cmd.Context(), input)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, out, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d rows, %d analyzed, %d errors, %d skipped cells\n",
				output, len(b.Rows), b.Succeeded(), b.Failed(), b.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", defaultOutput, "path of the results workbook")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Watch the inbox on a schedule and serve the upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			s := scheduler.New(cfg, licenseauditor.NewLicenseAgent(cfg))
			log.Info().Msg("Starting scheduler...")
			if err := s.Start(cmd.Context()); err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("scheduler failed: %w", err)
			}
			return nil
		},
	}
}

func newRunOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Sweep the inbox once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			agent := licenseauditor.NewLicenseAgent(cfg)
			if err := agent.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize agent: %w", err)
			}

			s := scheduler.New(cfg, agent)
			if err := s.RunOnce(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("status", s.Monitor().GetStatusSummary()).Msg("Run complete")
			return nil
		},
	}
}
