package cli

import (
	"encoding/json"
	"fmt"

	"edge-status/internal/config"
	"edge-status/internal/display"
	"edge-status/internal/trace"

	"github.com/spf13/cobra"
)

var onceJSON bool

func init() {
	onceCmd.Flags().BoolVar(&onceJSON, "json", false, "print the parsed trace record as JSON instead of the status line")
	rootCmd.AddCommand(onceCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Fetch the trace once and print the status line",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		transport, err := trace.NewTransport(cfg.TLS.CAFile, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return err
		}
		fetcher := trace.NewFetcher(cfg.Origin, cfg.TracePath, transport, cfg.Timeout())

		if onceJSON {
			text, err := fetcher.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(trace.Parse(text), "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		status := display.NewTextNode("")
		ctrl, err := display.New(display.Options{
			Status:       status,
			Fetcher:      fetcher,
			Formatter:    trace.Formatter{Prefix: cfg.Prefix, Strict: cfg.StrictFields},
			URL:          fetcher.URL,
			FallbackText: cfg.FallbackText,
			Logger:       newLogger(),
		})
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctrl.Refresh(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), status.Text())
		return nil
	},
}
