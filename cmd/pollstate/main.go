// Package main is the entry point for the pollstate CLI.
//
// pollstate blocks until an external resource reaches a terminal status
// and exits non-zero when it does not.
//
// Usage:
//
//	pollstate signer wait <signer-uuid>   # Wait for a Neynar signer approval
//	pollstate deploy wait --project <id>  # Wait for the latest Vercel deployment
//	pollstate login wait                  # Wait for a Vercel login to resolve
//	pollstate validate -c config.yaml     # Validate configuration
//	pollstate version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "pollstate",
	Short: "Wait for external resources to reach a terminal status",
	Long: `pollstate polls a remote status API at a fixed interval until the
resource reaches a terminal status, the wall-clock budget runs out, or the
retry budget for consecutive errors is exhausted.

Quick start:
  export NEYNAR_API_KEY=...
  pollstate signer wait 19d0c5fd-9b33-4a48-a0e2-bc7b0555baec

  export VERCEL_TOKEN=... VERCEL_PROJECT_ID=prj_...
  pollstate deploy wait

Example config:
  status_port: 8080
  vercel:
    token: ${VERCEL_TOKEN}
  deployment:
    interval: 10s
    timeout: 10m`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pollstate binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "pollstate %s\n", version)
		_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
		_, _ = fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file")
	flags.String("log-format", "text", "log output format: text or json")
	flags.Bool("debug", false, "log every status check")
	flags.Int("status-port", 0, "serve poll progress on this port (0 disables)")

	rootCmd.AddCommand(versionCmd)
}
