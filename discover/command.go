package discover

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

// CommandSource runs an external discovery program that prints a manifest
// on stdout, e.g. a script that loads the host and reflects over it.
type CommandSource struct {
	// Command is split with shell quoting rules; it is not run through a shell
	Command string
	Format  string
	Dir     string
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

func (s *CommandSource) Name() string {
	return "command:" + s.Command
}

func (s *CommandSource) Discover(ctx context.Context) ([]symbol.Descriptor, error) {
	l := logger.OrNop(s.Logger)

	args, err := shellquote.Split(s.Command)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "cannot parse discover.command %q: %v", s.Command, err)
	}
	if len(args) == 0 {
		return nil, errors.NewInvalidRequestError("discover.command is empty")
	}

	format := s.Format
	if format == "" {
		format = FormatJSON
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	l.Debugw("Running discovery command", "args", args, logger.FieldFormat, format)

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.WithHint(
				errors.Newf("discovery command timed out after %s", timeout),
				"raise discover.timeout_seconds",
			)
		}
		err = errors.Wrapf(err, "discovery command %s failed", args[0])
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = errors.WithDetail(err, msg)
		}
		return nil, err
	}

	symbols, err := ParseManifest(stdout.Bytes(), format)
	if err != nil {
		return nil, errors.Wrapf(err, "output of %s", args[0])
	}

	l.Infow("Discovered symbols from command",
		"command", args[0],
		logger.FieldCount, len(symbols),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return symbols, nil
}
