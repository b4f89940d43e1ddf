// Package cmd implements the warelay command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "warelay",
	Short: "warelay — WhatsApp Cloud API relay for a conversational backend",
	Long: "warelay bridges WhatsApp Cloud API webhooks to a conversational backend,\n" +
		"keeping per-user conversation continuity, and relays replies back to the user.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.warelay/config.json)")
}
