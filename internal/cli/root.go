// Package cli wires the broker's cobra commands: the root command runs a
// session, and hidden subcommands back the engine's side-effect hooks.
package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile    string
	prettyLogs bool
)

// rootCmd runs one broker session: control payload in on stdin, result
// envelopes out on stdout.
var rootCmd = &cobra.Command{
	Use:   "enclave",
	Short: "Enclave - sandboxed conversational session broker",
	Long: `Enclave brokers one conversational session between a host process and a
reasoning engine. It reads a control payload from stdin, feeds prompts from a
file mailbox into the engine, and emits marker-framed result envelopes on
stdout until the close sentinel appears.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runBroker,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON, overridden by environment)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "console-formatted log output")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}
