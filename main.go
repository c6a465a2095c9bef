package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cdtdelta/suricata24h/internal/config"
	"github.com/cdtdelta/suricata24h/internal/logging"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "suricata24h [input]",
		Short: "Summarize a 24 hour Suricata export into CSV tables and charts",
		Long: `suricata24h reads a Suricata export (Kibana/Elastic CSV or eve.json lines),
normalizes timestamps to UTC plus a display timezone, derives flow features
and writes top talkers, AS orgs, hourly counts, alert breakdowns, a minimal
feature table and PNG charts into an output directory.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set(config.KeyInput, args[0])
			}
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			logger := logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel)).With("run_id", runID)

			return NewApp(cfg, logger, cmd.OutOrStdout(), runID).Run(cmd.Context())
		},
	}

	cmd.AddCommand(newRunsCmd(v, &cfgFile))

	pf := cmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	pf.StringP(config.KeyOutDir, "o", "suricata_24h_report", "output directory")
	pf.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "text", "log format: text, json")
	pf.String(config.KeyDBDriver, "", "export flows to a database: sqlite, postgres")
	pf.String(config.KeyDBDSN, "", "database file (sqlite) or connection string (postgres)")

	f := cmd.Flags()
	f.String(config.KeyTZ, "America/Chicago", "display timezone (IANA name)")
	f.Int(config.KeyTopN, 15, "bars in the AS org chart")
	f.Int(config.KeyLimit, 200, "rows kept in the top IP and AS org tables")
	f.Int(config.KeyBins, 50, "buckets in the duration histogram")
	f.StringP(config.KeyDelimiter, "d", ",", `CSV field delimiter ("\t" or "tab" for tabs)`)
	f.String(config.KeyFormat, config.FormatAuto, "input format: auto, csv, jsonl")
	f.Bool(config.KeyManifest, false, "write a BLAKE3 checksum manifest of the outputs")

	for _, key := range []string{config.KeyOutDir, config.KeyLogLevel, config.KeyLogFormat,
		config.KeyDBDriver, config.KeyDBDSN} {
		cobra.CheckErr(v.BindPFlag(key, pf.Lookup(key)))
	}
	for _, key := range []string{config.KeyTZ, config.KeyTopN, config.KeyLimit, config.KeyBins,
		config.KeyDelimiter, config.KeyFormat, config.KeyManifest} {
		cobra.CheckErr(v.BindPFlag(key, f.Lookup(key)))
	}

	return cmd
}

// newRunsCmd lists the exports recorded in the database.
func newRunsCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the report runs recorded in the export database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *cfgFile)
			if err != nil {
				return err
			}
			logger := logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
			return NewApp(cfg, logger, cmd.OutOrStdout(), "").ListRuns(cmd.Context())
		},
	}
}
