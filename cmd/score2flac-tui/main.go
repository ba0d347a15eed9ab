package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/handiism/score2flac/internal/config"
	"github.com/handiism/score2flac/internal/tui"
)

func main() {
	var (
		configPath string
		logPath    string
	)

	rootCmd := &cobra.Command{
		Use:           "score2flac-tui",
		Short:         "Interactive converter for ABC scores and MIDI files",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			settings, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if logPath == "" {
				return tui.Run(settings, nil)
			}
			f, err := tea.LogToFile(logPath, "score2flac")
			if err != nil {
				return err
			}
			defer f.Close()
			return tui.Run(settings, f)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (.json or .hcl)")
	rootCmd.Flags().StringVar(&logPath, "log-file", "", "Write logs to this file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
