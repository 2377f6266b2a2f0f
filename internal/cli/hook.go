package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arif/enclave/internal/config"
	"github.com/arif/enclave/internal/logger"
	"github.com/arif/enclave/internal/store"
	"github.com/arif/enclave/pkg/hooks"
)

// hookCmd hosts the handlers the engine invokes via its generated settings
// file. Hidden: the host process never calls these directly.
var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Engine side-effect hook handlers",
	Hidden: true,
}

var preToolUseCmd = &cobra.Command{
	Use:   "pre-tool-use",
	Short: "Sanitize shell-tool input before execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		return hooks.HandlePreToolUse(os.Stdin, os.Stdout, config.SecretEnvKeys)
	},
}

var preCompactCmd = &cobra.Command{
	Use:   "pre-compact",
	Short: "Archive the transcript before compaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}

		lg, err := logger.New(logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File})
		if err != nil {
			return err
		}
		defer lg.Close()
		zlog := lg.GetZerolog()

		var summaries hooks.SummaryStore
		if st, err := store.Open(cfg.StorePath()); err == nil {
			defer st.Close()
			summaries = st
		} else {
			zlog.Warn().Err(err).Msg("Store unavailable, archiving without stored summaries")
		}

		archiver := hooks.NewArchiver(cfg.Archive.Dir, summaries, zlog)
		return hooks.HandlePreCompact(os.Stdin, archiver)
	},
}

func init() {
	hookCmd.AddCommand(preToolUseCmd)
	hookCmd.AddCommand(preCompactCmd)
	rootCmd.AddCommand(hookCmd)
}
