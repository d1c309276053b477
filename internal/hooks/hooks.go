// Package hooks runs user scripts at fixed points of the tool's lifecycle.
//
// Scripts live in <hooks_dir>/<point>/ and run in name order. Only
// executable regular files are considered. Each script receives the hook
// context as environment variables on top of the process environment.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/config"
	"github.com/cristianoliveira/vault-kanban/internal/errors"
	"github.com/cristianoliveira/vault-kanban/internal/logging"
)

// Hook points.
const (
	PostCreate = "post-create"
	PostCoerce = "post-coerce"
)

// FailureMode decides what a failing script does to the operation that ran it.
type FailureMode string

const (
	FailureIgnore FailureMode = "ignore"
	FailureWarn   FailureMode = "warn"
	FailureAbort  FailureMode = "abort"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 30 * time.Second

// Runner executes hook scripts.
type Runner struct {
	Dir         string
	Enabled     bool
	FailureMode FailureMode
	Timeout     time.Duration
	// Output receives the combined output of every script.
	Output io.Writer
	Logger logging.Logger
}

// FromConfig builds a Runner from hooks_dir, hooks_enabled and
// hooks_failure_mode.
func FromConfig(logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Runner{
		Dir:         config.Get("hooks_dir", ""),
		Enabled:     config.GetBool("hooks_enabled", true),
		FailureMode: FailureMode(config.Get("hooks_failure_mode", string(FailureWarn))),
		Timeout:     DefaultTimeout,
		Output:      os.Stderr,
		Logger:      logger.With("component", "hooks"),
	}
}

// Scripts lists the executable scripts of point, sorted by name.
func (r *Runner) Scripts(point string) []string {
	if r.Dir == "" {
		return nil
	}
	entries, err := os.ReadDir(filepath.Join(r.Dir, point))
	if err != nil {
		// No directory, no hooks.
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(r.Dir, point, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Mode()&0111 == 0 {
			continue
		}
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)
	return scripts
}

// Run executes the scripts of point with env added to their environment.
// A failing script is handled according to the failure mode: abort stops
// at that script and returns an error wrapping errors.ErrAborted, warn
// prints a warning and continues, ignore only logs.
func (r *Runner) Run(ctx context.Context, point string, env map[string]string) error {
	if r == nil || !r.Enabled {
		return nil
	}
	scripts := r.Scripts(point)
	if len(scripts) == 0 {
		return nil
	}
	logger := r.logger()
	logger.Debug("running hooks", "point", point, "scripts", len(scripts))

	vars := r.environ(point, env)
	for _, script := range scripts {
		start := time.Now()
		out, err := r.exec(ctx, script, vars)
		if len(out) > 0 && r.Output != nil {
			_, _ = r.Output.Write(out)
		}
		name := filepath.Base(script)
		if err == nil {
			logger.Debug("hook completed", "point", point, "script", name, "duration", time.Since(start).String())
			continue
		}

		logger.Warn("hook failed", "point", point, "script", name, "error", err.Error())
		colors.StructuredError("hooks", "run", "failed", err, point, map[string]any{"script": name})
		switch r.FailureMode {
		case FailureAbort:
			return errors.Abortf("hook %s/%s failed: %v", point, name, err)
		case FailureIgnore:
		default:
			colors.Warning(fmt.Sprintf("hook %s/%s failed: %v", point, name, err))
		}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, script string, vars []string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script)
	cmd.Env = vars
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	// Children that outlive the script must not hold Run open on the pipe.
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return buf.Bytes(), fmt.Errorf("timed out after %s", timeout)
	}
	return buf.Bytes(), err
}

func (r *Runner) environ(point string, env map[string]string) []string {
	vars := os.Environ()
	vars = append(vars,
		"HOOK_POINT="+point,
		"HOOK_TIMESTAMP="+time.Now().Format(time.RFC3339),
		config.EnvPrefix+"HOOKS_FAILURE_MODE="+string(r.FailureMode),
	)
	if exe, err := os.Executable(); err == nil {
		vars = append(vars, config.EnvPrefix+"BINARY="+exe)
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars = append(vars, k+"="+env[k])
	}
	return vars
}

func (r *Runner) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Noop()
	}
	return r.Logger
}
