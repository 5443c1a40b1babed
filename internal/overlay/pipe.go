package overlay

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// initialTextEnv carries the first banner text to the helper process.
const initialTextEnv = "OVERLAY_INITIAL_TEXT"

// stopTimeout bounds how long Stop waits for the helper to exit before
// killing it.
const stopTimeout = 5 * time.Second

// command is one JSON line sent to the helper.
type command struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

// PipeSink drives an external overlay helper over its stdin.
type PipeSink struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *slog.Logger
}

// StartPipe launches the helper argv with the initial text and returns a sink
// feeding it. The helper owns its window; this side only writes commands.
func StartPipe(argv []string, initialText string, logger *slog.Logger) (*PipeSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("overlay command not configured")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), initialTextEnv+"="+initialText)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("overlay stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start overlay helper: %w", err)
	}
	return &PipeSink{cmd: cmd, stdin: stdin, logger: logger}, nil
}

// SetText updates the banner. Write errors are logged and dropped; the
// overlay is advisory.
func (s *PipeSink) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return
	}
	if err := s.writeCommand(command{Cmd: "set_text", Text: text}); err != nil {
		s.logger.Debug("overlay update failed", "error", err)
	}
}

// Stop asks the helper to exit and kills it if it does not comply in time.
func (s *PipeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return
	}
	if err := s.writeCommand(command{Cmd: "stop"}); err != nil {
		s.logger.Debug("overlay stop command failed", "error", err)
	}
	s.stdin.Close()
	s.stdin = nil

	if s.cmd == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.logger.Warn("overlay helper did not exit, killing")
		_ = s.cmd.Process.Kill()
		<-done
	}
	s.cmd = nil
}

func (s *PipeSink) writeCommand(c command) error {
	line, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.stdin.Write(append(line, '\n'))
	return err
}
