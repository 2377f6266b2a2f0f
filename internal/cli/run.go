package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arif/enclave/internal/config"
	"github.com/arif/enclave/internal/control"
	"github.com/arif/enclave/internal/logger"
	"github.com/arif/enclave/internal/sched"
	"github.com/arif/enclave/internal/store"
	"github.com/arif/enclave/pkg/actions"
	"github.com/arif/enclave/pkg/emitter"
	"github.com/arif/enclave/pkg/engine"
	"github.com/arif/enclave/pkg/fallback"
	"github.com/arif/enclave/pkg/mailbox"
	"github.com/arif/enclave/pkg/orchestrator"
)

// runBroker runs one session end to end. A nil return means the close
// sentinel ended the session gracefully; any error has already been reported
// as a fatal error envelope on stdout.
func runBroker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return err
	}

	lg, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Pretty: prettyLogs,
	})
	if err != nil {
		return err
	}
	defer lg.Close()
	zlog := lg.GetZerolog()

	em := emitter.New(os.Stdout)

	err = runSession(cfg, zlog, em)
	if err != nil {
		zlog.Error().Err(err).Msg("Session failed")

		sessionID := ""
		var se *orchestrator.SessionError
		if errors.As(err, &se) {
			sessionID = se.SessionID
		}
		if emitErr := em.Emit(emitter.Failure(err.Error(), sessionID)); emitErr != nil {
			zlog.Error().Err(emitErr).Msg("Failed to emit error envelope")
		}
	}
	return err
}

func runSession(cfg *config.Config, zlog zerolog.Logger, em *emitter.Emitter) error {
	payload, err := control.Read(os.Stdin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	box := mailbox.New(cfg.Mailbox.Dir, cfg.Mailbox.SentinelPath, cfg.Mailbox.PollInterval(), zlog)

	if len(cfg.Schedule) > 0 {
		scheduler, err := sched.New(cfg.Mailbox.Dir, cfg.Schedule, zlog)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Persistence is best-effort: a broken database costs session resumption
	// and archive titles, not the session itself.
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		zlog.Warn().Err(err).Msg("Store unavailable, continuing without persistence")
		st = nil
	} else {
		defer st.Close()
	}

	if cfg.Fallback.Enabled() {
		zlog.Info().Msg("Fallback credential present, using completion provider")
		return runFallback(ctx, cfg, payload, box, em, zlog)
	}
	return runPrimary(ctx, cfg, payload, box, em, st, zlog)
}

func runPrimary(
	ctx context.Context,
	cfg *config.Config,
	payload *control.Payload,
	box *mailbox.Mailbox,
	em *emitter.Emitter,
	st *store.Store,
	zlog zerolog.Logger,
) error {
	selfExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve own executable: %w", err)
	}
	settingsPath, err := engine.WriteSettings(cfg.DataDir, selfExe)
	if err != nil {
		return err
	}

	eng := engine.NewSubprocess(engine.SubprocessConfig{
		Binary:       cfg.Engine.Binary,
		Model:        cfg.Engine.Model,
		SettingsPath: settingsPath,
		Logger:       zlog,
	})

	handle := store.Handle{SessionID: payload.SessionID}
	if handle.SessionID == "" && payload.GroupID != "" && st != nil {
		stored, found, err := st.LoadHandle(payload.GroupID)
		if err != nil {
			zlog.Warn().Err(err).Msg("Failed to load session handle")
		} else if found {
			handle = stored
			zlog.Info().Str("session_id", handle.SessionID).Msg("Resuming stored session")
		}
	}

	orchCfg := orchestrator.Config{
		Engine:   eng,
		Mailbox:  box,
		Emitter:  em,
		GroupID:  payload.GroupID,
		Secrets:  payload.Secrets,
		Interval: cfg.Mailbox.PollInterval(),
		Logger:   zlog,
	}
	if st != nil {
		orchCfg.Store = st
	}

	orch, err := orchestrator.New(orchCfg)
	if err != nil {
		return err
	}
	return orch.Run(ctx, payload.EffectivePrompt(), handle)
}

func runFallback(
	ctx context.Context,
	cfg *config.Config,
	payload *control.Payload,
	box *mailbox.Mailbox,
	em *emitter.Emitter,
	zlog zerolog.Logger,
) error {
	router := actions.NewRouter(actions.NewClient(cfg.Google, zlog), zlog)

	loop, err := fallback.NewLoop(fallback.Config{
		Provider: fallback.NewProvider(cfg.Fallback),
		Router:   router,
		Mailbox:  box,
		Emitter:  em,
		Logger:   zlog,
	})
	if err != nil {
		return err
	}
	return loop.Run(ctx, payload.EffectivePrompt())
}
