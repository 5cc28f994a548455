package device

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Error taxonomy for device actions. Callers distinguish failure classes
// with errors.Is; every one still surfaces as a spoken message, never as a
// crash of the session loop.
var (
	ErrAppNotFound              = errors.New("application not recognized")
	ErrLaunchFailed             = errors.New("failed to launch application")
	ErrPathRejected             = errors.New("path outside the allowed directory")
	ErrConfirmationRequired     = errors.New("confirmation required")
	ErrDeviceControlUnavailable = errors.New("device control unavailable")
	ErrAutomationTarget         = errors.New("automation target not found")
)

// Controller performs local OS actions. All of its configuration (alias
// tables, files root) is read-only after construction, so a single
// Controller is safe for concurrent use by all sessions.
type Controller struct {
	appAliases      map[string]string
	platformAliases map[string]string
	filesRoot       string
	dangerous       bool
	logger          *zap.Logger
}

// NewController builds a Controller from process-wide configuration.
func NewController(appAliases, platformAliases map[string]string, filesRoot string, dangerous bool) *Controller {
	return &Controller{
		appAliases:      appAliases,
		platformAliases: platformAliases,
		filesRoot:       filesRoot,
		dangerous:       dangerous,
		logger:          zap.L().Named("device"),
	}
}

// DangerousEnabled reports whether destructive commands run without an
// explicit confirmation.
func (c *Controller) DangerousEnabled() bool { return c.dangerous }

func zapPath(p string) zap.Field { return zap.String("path", p) }

// OpenApp launches the executable behind a spoken application name.
func (c *Controller) OpenApp(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	path, ok := c.appAliases[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrLaunchFailed, name, err)
	}
	go func() { _ = cmd.Wait() }()
	c.logger.Info("launched application", zap.String("app", key), zap.String("path", path))
	return fmt.Sprintf("Opening %s", name), nil
}

// CloseApp terminates running processes matching the spoken name.
// Best-effort: an app that is not running is a failed result, not an error
// class of its own.
func (c *Controller) CloseApp(name string) (string, error) {
	spoken := strings.ToLower(strings.TrimSpace(name))
	targets := []string{spoken}
	if alias, ok := c.appAliases[spoken]; ok {
		// "close chrome" should match the google-chrome process too.
		targets = append(targets, strings.ToLower(strings.TrimSuffix(alias, ".exe")))
	}

	procs, err := process.Processes()
	if err != nil {
		return "", fmt.Errorf("%w: listing processes: %v", ErrDeviceControlUnavailable, err)
	}

	closed := 0
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if !processMatches(pname, targets) {
			continue
		}
		if err := p.Terminate(); err == nil {
			closed++
		}
	}
	if closed == 0 {
		return "", fmt.Errorf("%w: %s is not running", ErrAutomationTarget, name)
	}
	return fmt.Sprintf("Closed %d instance(s) of %s", closed, name), nil
}

// processMatches reports whether a running process name matches any close
// target. Matching is one-directional: the process name must contain the
// target, never the other way around, so a short process name ("go") can
// not match inside a longer alias ("google-chrome").
func processMatches(procName string, targets []string) bool {
	lower := strings.ToLower(procName)
	for _, target := range targets {
		if target != "" && strings.Contains(lower, target) {
			return true
		}
	}
	return false
}

// runFirst tries each command line in order and returns nil on the first
// that succeeds. Used for OS controls with several possible backends.
func runFirst(candidates [][]string) error {
	var lastErr error
	for _, argv := range candidates {
		if _, err := exec.LookPath(argv[0]); err != nil {
			lastErr = err
			continue
		}
		if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no backend available")
	}
	return lastErr
}

// AdjustVolume moves the system volume "up", "down", or "mute".
func (c *Controller) AdjustVolume(direction string) (string, error) {
	var candidates [][]string
	switch runtime.GOOS {
	case "darwin":
		script := map[string]string{
			"up":   "set volume output volume ((output volume of (get volume settings)) + 10)",
			"down": "set volume output volume ((output volume of (get volume settings)) - 10)",
			"mute": "set volume output muted true",
		}[direction]
		candidates = [][]string{{"osascript", "-e", script}}
	default:
		arg := map[string]string{"up": "+10%", "down": "-10%", "mute": "toggle"}[direction]
		if direction == "mute" {
			candidates = [][]string{
				{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
				{"amixer", "-q", "set", "Master", "toggle"},
			}
		} else {
			candidates = [][]string{
				{"pactl", "set-sink-volume", "@DEFAULT_SINK@", arg},
				{"amixer", "-q", "set", "Master", map[string]string{"up": "10%+", "down": "10%-"}[direction]},
			}
		}
	}
	if err := runFirst(candidates); err != nil {
		return "", fmt.Errorf("%w: volume: %v", ErrDeviceControlUnavailable, err)
	}
	switch direction {
	case "mute":
		return "Muted", nil
	default:
		return fmt.Sprintf("Volume %s", direction), nil
	}
}

// AdjustBrightness moves the display brightness "up" or "down".
func (c *Controller) AdjustBrightness(direction string) (string, error) {
	var candidates [][]string
	switch runtime.GOOS {
	case "darwin":
		key := map[string]string{"up": "144", "down": "145"}[direction]
		candidates = [][]string{{"osascript", "-e", fmt.Sprintf("tell application \"System Events\" to key code %s", key)}}
	default:
		arg := map[string]string{"up": "+10%", "down": "10%-"}[direction]
		candidates = [][]string{
			{"brightnessctl", "set", arg},
			{"xbacklight", map[string]string{"up": "-inc", "down": "-dec"}[direction], "10"},
		}
	}
	if err := runFirst(candidates); err != nil {
		return "", fmt.Errorf("%w: brightness: %v", ErrDeviceControlUnavailable, err)
	}
	return fmt.Sprintf("Brightness %s", direction), nil
}

// WebSearch opens the default browser on a search results page.
// Fire-and-forget: success means the URL was handed off, not that the page
// loaded.
func (c *Controller) WebSearch(query string) (string, error) {
	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(query)
	var argv []string
	switch runtime.GOOS {
	case "darwin":
		argv = []string{"open", searchURL}
	case "windows":
		argv = []string{"rundll32", "url.dll,FileProtocolHandler", searchURL}
	default:
		argv = []string{"xdg-open", searchURL}
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: browser: %v", ErrDeviceControlUnavailable, err)
	}
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Searching for %s", query), nil
}
