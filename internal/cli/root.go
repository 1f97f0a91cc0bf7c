package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// Version is stamped at build time
var Version = "dev"

const appName = "dormant"

// NewRootCommand builds the dormant command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Start and stop EC2 and RDS instances on a weekly schedule",
		Long: `dormant reads a weekly schedule from a tag on every EC2 and RDS instance
and starts or stops the instance when the current hour matches.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (optional)")

	rootCmd.AddCommand(
		newRunCommand(&configPath),
		newServeCommand(&configPath),
		newEncodeCommand(),
	)
	return rootCmd
}

func setupLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}

func modeString(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "production"
}
