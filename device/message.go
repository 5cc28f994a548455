package device

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SendMessage drives a desktop chat application through UI automation to
// deliver a message. Every step is best-effort and individually fallible;
// the returned error names the step that failed (app not found, contact
// search failed, send failed) so the session can speak a useful diagnostic.
func (c *Controller) SendMessage(contact, platform, body string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(platform))
	app, ok := c.platformAliases[key]
	if !ok {
		return "", fmt.Errorf("%w: messaging platform %q", ErrAppNotFound, platform)
	}
	if _, err := exec.LookPath(app); err != nil {
		return "", fmt.Errorf("%w: %s is not installed", ErrAutomationTarget, platform)
	}
	if _, err := exec.LookPath("xdotool"); err != nil {
		return "", fmt.Errorf("%w: xdotool not available for UI automation", ErrDeviceControlUnavailable)
	}

	launch := exec.Command(app)
	if err := launch.Start(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrLaunchFailed, platform, err)
	}
	go func() { _ = launch.Wait() }()

	// Give the window time to appear, then drive it. Each xdotool step can
	// independently fail (window not focusable, search box missing).
	steps := []struct {
		what string
		argv []string
	}{
		{"focus window", []string{"xdotool", "search", "--sync", "--onlyvisible", "--name", key, "windowactivate"}},
		{"open contact search", []string{"xdotool", "key", "ctrl+f"}},
		{"type contact name", []string{"xdotool", "type", "--delay", "50", contact}},
		{"select contact", []string{"xdotool", "key", "Return"}},
		{"type message", []string{"xdotool", "type", "--delay", "30", body}},
		{"send message", []string{"xdotool", "key", "Return"}},
	}
	time.Sleep(1500 * time.Millisecond)
	for _, step := range steps {
		if err := exec.Command(step.argv[0], step.argv[1:]...).Run(); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrAutomationTarget, step.what, err)
		}
		time.Sleep(300 * time.Millisecond)
	}

	c.logger.Info("message sent", zap.String("platform", key), zap.String("contact", contact))
	return fmt.Sprintf("Message sent to %s on %s", contact, platform), nil
}
