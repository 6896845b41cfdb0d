package idle

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// TmuxProbe reports the most recent client activity of a tmux session.
type TmuxProbe struct {
	sessionName string
	cmdExecutor func(name string, args ...string) ([]byte, error)
	getenv      func(string) string
}

var _ ActivityProbe = (*TmuxProbe)(nil)

// NewTmuxProbe creates a probe. If sessionName is empty the current session is used.
func NewTmuxProbe(sessionName string) *TmuxProbe {
	return &TmuxProbe{
		sessionName: sessionName,
		cmdExecutor: defaultCmdExecutor,
		getenv:      os.Getenv,
	}
}

// defaultCmdExecutor executes a command and returns its output.
func defaultCmdExecutor(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.Output()
}

// Available reports whether we run inside tmux and the tmux binary answers.
func (p *TmuxProbe) Available() bool {
	if !p.inTmux() {
		return false
	}
	_, err := p.cmdExecutor("tmux", "-V")
	return err == nil
}

// LastActivity returns the latest client activity across the session.
func (p *TmuxProbe) LastActivity() (time.Time, error) {
	if !p.inTmux() {
		return time.Time{}, fmt.Errorf("not in a tmux session")
	}

	session := p.sessionName
	if session == "" {
		name, err := p.currentSession()
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to get current session name: %w", err)
		}
		session = name
	}

	output, err := p.cmdExecutor("tmux", "list-clients", "-t", session, "-F", "#{client_activity}")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to list clients of %s: %w", session, err)
	}
	return parseClientActivity(output)
}

func (p *TmuxProbe) inTmux() bool {
	return p.getenv("TMUX") != ""
}

func (p *TmuxProbe) currentSession() (string, error) {
	output, err := p.cmdExecutor("tmux", "display-message", "-p", "#{session_name}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// parseClientActivity picks the newest epoch-seconds line.
func parseClientActivity(output []byte) (time.Time, error) {
	var newest time.Time
	for _, line := range bytes.Split(bytes.TrimSpace(output), []byte("\n")) {
		secs, err := strconv.ParseInt(string(bytes.TrimSpace(line)), 10, 64)
		if err != nil {
			continue
		}
		if t := time.Unix(secs, 0); t.After(newest) {
			newest = t
		}
	}
	if newest.IsZero() {
		return time.Time{}, fmt.Errorf("could not parse any client activity times")
	}
	return newest, nil
}
