package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vexedit/vex/internal/log"
)

// stopGrace is how long Stop waits for the core to exit after its stdin
// closes before killing it.
const stopGrace = 3 * time.Second

// ProcessConfig describes how to launch the core executable.
type ProcessConfig struct {
	// Command is the core executable to run.
	Command string

	// Args are command-line arguments.
	Args []string

	// Env are additional environment variables.
	Env map[string]string

	// WorkDir is the working directory (defaults to the current one).
	WorkDir string
}

// Process is a running core instance. Its stdin/stdout carry the message
// stream; stderr is drained to the logger.
type Process struct {
	id     string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	logger *log.Logger

	stopped atomic.Bool
	exitErr error
	exitCh  chan struct{}
}

// Launch starts the core executable with piped stdio. Each instance gets
// a uuid for log correlation across restarts.
func Launch(cfg ProcessConfig, logger *log.Logger) (*Process, error) {
	if logger == nil {
		logger = log.Discard()
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("start core %q: %w", cfg.Command, err)
	}

	p := &Process{
		id:     uuid.New().String(),
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		logger: logger,
		exitCh: make(chan struct{}),
	}

	go p.drainStderr(stderr)
	go p.monitor()

	logger.Infof("core started: %s (pid %d, instance %s)", cfg.Command, cmd.Process.Pid, p.id)
	return p, nil
}

// ID returns the instance's uuid.
func (p *Process) ID() string {
	return p.id
}

// Stdin is the stream outbound messages are written to.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout is the stream inbound messages are read from.
func (p *Process) Stdout() io.ReadCloser {
	return p.stdout
}

// Wait blocks until the core process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.exitCh
	return p.exitErr
}

// Stop closes the core's stdin and waits briefly for a clean exit before
// killing the process.
func (p *Process) Stop() error {
	if p.stopped.Swap(true) {
		return ErrAlreadyStopped
	}

	p.stdin.Close()
	select {
	case <-p.exitCh:
	case <-time.After(stopGrace):
		p.logger.Warnf("core instance %s did not exit; killing", p.id)
		p.cmd.Process.Kill()
		<-p.exitCh
	}
	return p.exitErr
}

// monitor records the process exit and releases waiters.
func (p *Process) monitor() {
	p.exitErr = p.cmd.Wait()
	close(p.exitCh)
	if p.exitErr != nil {
		p.logger.Warnf("core instance %s exited: %v", p.id, p.exitErr)
	} else {
		p.logger.Infof("core instance %s exited", p.id)
	}
}

// drainStderr forwards the core's stderr lines to the logger so its own
// diagnostics land in ours.
func (p *Process) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.logger.Debugf("core: %s", scanner.Text())
	}
}
