package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// Subprocess drives the reasoning engine CLI over its stream-json protocol:
// user messages are written to stdin as they become available, events are
// read from stdout, and the invocation ends when the prompt source closes
// and the process exits.
type Subprocess struct {
	binary       string
	model        string
	settingsPath string
	logger       zerolog.Logger
}

// SubprocessConfig configures a Subprocess engine.
type SubprocessConfig struct {
	Binary       string
	Model        string
	SettingsPath string
	Logger       zerolog.Logger
}

// NewSubprocess creates a subprocess-backed engine.
func NewSubprocess(cfg SubprocessConfig) *Subprocess {
	binary := cfg.Binary
	if binary == "" {
		binary = "claude"
	}
	return &Subprocess{
		binary:       binary,
		model:        cfg.Model,
		settingsPath: cfg.SettingsPath,
		logger:       cfg.Logger.With().Str("component", "engine").Logger(),
	}
}

// promptMessage is the stdin shape for one user turn.
type promptMessage struct {
	Type    string `json:"type"`
	Message struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

func newPromptMessage(text string) promptMessage {
	var msg promptMessage
	msg.Type = "user"
	msg.Message.Role = "user"
	msg.Message.Content = append(msg.Message.Content, struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: text})
	return msg
}

func (s *Subprocess) buildArgs(opts Options) []string {
	args := []string{
		"--input-format", "stream-json",
		"--output-format", "stream-json",
		"--verbose",
		"--dangerously-skip-permissions",
	}
	if s.model != "" {
		args = append(args, "--model", s.model)
	}
	if s.settingsPath != "" {
		args = append(args, "--settings", s.settingsPath)
	}
	if opts.SessionID != "" {
		args = append(args, "--resume", opts.SessionID)
		if opts.ResumeAt != "" {
			args = append(args, "--resume-session-at", opts.ResumeAt)
		}
	}
	return args
}

// buildEnv merges opts.Env on top of the process environment. The merge is
// visible to the engine process only; the broker's own environment is
// never mutated.
func buildEnv(opts Options) []string {
	env := append([]string(nil), os.Environ()...)
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// Invoke starts one engine invocation. The returned invocation's event
// channel closes when the engine's output stream ends.
func (s *Subprocess) Invoke(ctx context.Context, opts Options, prompts PromptSource) (*Invocation, error) {
	cmd := exec.CommandContext(ctx, s.binary, s.buildArgs(opts)...)
	cmd.Env = buildEnv(opts)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdout: %w", err)
	}
	cmd.Stderr = newStderrLogger(s.logger)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	s.logger.Info().
		Str("binary", s.binary).
		Str("session_id", opts.SessionID).
		Msg("Engine invocation started")

	// The feeder gets its own context so it unparks from Next when the
	// process exits on its own, not only when the caller cancels.
	feedCtx, stopFeeding := context.WithCancel(ctx)
	go s.feedPrompts(feedCtx, stdin, prompts)

	events := make(chan Event, 16)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer close(events)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			events <- ParseEvent(line)
		}
	}()

	wait := func() error {
		<-readerDone
		err := cmd.Wait()
		stopFeeding()
		if err != nil {
			return fmt.Errorf("engine exited abnormally: %w", err)
		}
		return nil
	}

	return NewInvocation(events, wait), nil
}

// feedPrompts forwards prompts into the engine's stdin until the source
// reports completion, then closes stdin so the engine can finish the turn
// sequence. Closing stdin is what ends the invocation; the prompt source
// guarantees it never happens while a turn is still expected.
func (s *Subprocess) feedPrompts(ctx context.Context, stdin io.WriteCloser, prompts PromptSource) {
	defer stdin.Close()

	enc := json.NewEncoder(stdin)
	for {
		text, ok := prompts.Next(ctx)
		if !ok {
			return
		}
		if err := enc.Encode(newPromptMessage(text)); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to forward prompt to engine")
			return
		}
		s.logger.Debug().Int("chars", len(text)).Msg("Prompt forwarded to engine")
	}
}

// stderrLogger relays engine stderr lines into the broker log.
type stderrLogger struct {
	logger zerolog.Logger
}

func newStderrLogger(logger zerolog.Logger) io.Writer {
	return &stderrLogger{logger: logger}
}

func (w *stderrLogger) Write(p []byte) (int, error) {
	w.logger.Debug().Str("stderr", string(p)).Msg("Engine stderr")
	return len(p), nil
}
