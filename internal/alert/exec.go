package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/fentz26/dosewatch/internal/models"
)

// ExecAlerter hands each alert to an external command, once per contact.
// The command sees the alert in DOSEWATCH_* environment variables and a
// non-zero exit counts the contact as skipped.
type ExecAlerter struct {
	command string
	args    []string
	logger  *slog.Logger
	phones  LogAlerter
}

// NewExecAlerter resolves argv[0] on PATH and returns an alerter running it.
func NewExecAlerter(argv []string, logger *slog.Logger) (*ExecAlerter, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("alert command is empty")
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("alert command: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecAlerter{
		command: path,
		args:    argv[1:],
		logger:  logger,
	}, nil
}

// Name returns the alerter identifier.
func (e *ExecAlerter) Name() string {
	return "exec"
}

// Accepts applies the same phone check as LogAlerter.
func (e *ExecAlerter) Accepts(c models.Contact) bool {
	return e.phones.Accepts(c)
}

// Send runs the command for every addressable contact.
func (e *ExecAlerter) Send(ctx context.Context, a Alert) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Alerter: e.Name()}
	for _, c := range a.Contacts {
		if !e.Accepts(c) {
			res.Skipped = append(res.Skipped, c.ID)
			continue
		}
		if err := e.run(ctx, a, c); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Skipped = append(res.Skipped, c.ID)
			e.logger.Error("alert command failed", "contact", c.Name, "error", err)
			continue
		}
		res.Notified++
	}
	return res, nil
}

func (e *ExecAlerter) run(ctx context.Context, a Alert, c models.Contact) error {
	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Env = append(os.Environ(),
		"DOSEWATCH_MESSAGE="+a.Message,
		"DOSEWATCH_CONTACT_NAME="+c.Name,
		"DOSEWATCH_CONTACT_PHONE="+c.Phone,
		"DOSEWATCH_CONTACT_RELATION="+c.Relation,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("exec error: %w", err)
	}
	return nil
}
