// Package linker creates symbolic links by running an external helper
// (ln -s SOURCE DEST). Copy and move use it for symlink sources, which are
// recreated rather than streamed.
package linker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/logging"
)

// Defaults for the helper location and the per-invocation timeout.
const (
	DefaultHelper  = "/bin/ln"
	DefaultTimeout = 30 * time.Second
)

// ErrHelperNotFound is returned when the helper executable cannot be found.
var ErrHelperNotFound = errors.New("link helper not found")

// ErrLinkFailed is returned when the helper runs but exits non-zero.
var ErrLinkFailed = errors.New("link helper failed")

// Linker runs the link helper.
type Linker struct {
	helper  string
	timeout time.Duration
	log     *logging.Logger
}

// New returns a Linker for the given helper. A bare name such as "ln" is
// resolved through PATH; an empty helper or non-positive timeout selects the
// defaults.
func New(helper string, timeout time.Duration) *Linker {
	if helper == "" {
		helper = DefaultHelper
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Linker{
		helper:  helper,
		timeout: timeout,
		log:     logging.Get("linker"),
	}
}

// Locate returns the path of the helper executable.
func (l *Linker) Locate() (string, error) {
	if !strings.ContainsRune(l.helper, filepath.Separator) {
		path, err := exec.LookPath(l.helper)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrHelperNotFound, l.helper)
		}
		return path, nil
	}

	info, err := os.Stat(l.helper)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrHelperNotFound, l.helper)
	}
	return l.helper, nil
}

// Link runs "helper -s source dest" and waits for it, up to the timeout.
func (l *Linker) Link(ctx context.Context, source, dest string) error {
	path, err := l.Locate()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-s", source, dest)
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		l.log.Debug("link helper failed", "source", source, "dest", dest, "error", err, "stderr", msg)
		if msg == "" {
			return fmt.Errorf("%w: %v", ErrLinkFailed, err)
		}
		return fmt.Errorf("%w: %s", ErrLinkFailed, msg)
	}

	l.log.Debug("symlink created", "source", source, "dest", dest, "duration", time.Since(start))
	return nil
}
