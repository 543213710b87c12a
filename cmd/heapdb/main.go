package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	flagLogFile string
	flagQuiet   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "heapdb <environment-dir>",
	Short:         "Minimal relational storage engine with a SQL shell",
	Long:          "heapdb keeps tables as heaps of slotted pages in fixed-size blocks,\nwith a self-describing catalog, and executes a small SQL DDL subset\nagainst it. The single argument names the database environment directory.",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runShell,
}

func init() {
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file (rotated) instead of discarding them")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress the startup banner")

	viper.SetEnvPrefix("HEAPDB")
	viper.AutomaticEnv()
	viper.BindPFlag("log_file", rootCmd.Flags().Lookup("log-file"))
	viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
}

// newLogger builds the shell's logger. Logging is opt-in: without a log
// file the handler writes to io.Discard, keeping the interactive stream
// clean (statement failures already go to stderr as Error: lines).
func newLogger() *slog.Logger {
	var w io.Writer = io.Discard
	if path := viper.GetString("log_file"); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
