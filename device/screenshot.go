package device

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Screenshot captures the screen to a timestamped PNG under the files root.
// Different capture tools per operating system; every failure is reported as
// a device-control result, never a crash.
func (c *Controller) Screenshot() (string, error) {
	dir := filepath.Join(c.filesRoot, "Screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: screenshot dir: %v", ErrDeviceControlUnavailable, err)
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	var candidates [][]string
	switch runtime.GOOS {
	case "darwin":
		candidates = [][]string{{"screencapture", "-x", path}}
	case "windows":
		candidates = [][]string{{"powershell", "-command",
			fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('{PRTSC}'); Start-Sleep -m 200; (Get-Clipboard -Format Image).Save('%s')", path)}}
	default:
		candidates = [][]string{
			{"gnome-screenshot", "-f", path},
			{"scrot", path},
			{"import", "-window", "root", path},
		}
	}

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
		c.logger.Info("screenshot captured", zapPath(path))
		return fmt.Sprintf("Screenshot saved to %s", name), nil
	}
	return "", fmt.Errorf("%w: screenshot: %v", ErrDeviceControlUnavailable, lastErr)
}

// Shutdown powers the machine off after a grace period. Gated by the
// dangerous-commands setting.
func (c *Controller) Shutdown() (string, error) {
	if !c.dangerous {
		return "", fmt.Errorf("%w: dangerous commands are disabled", ErrConfirmationRequired)
	}
	var argv []string
	switch runtime.GOOS {
	case "windows":
		argv = []string{"shutdown", "/s", "/t", "30"}
	default:
		argv = []string{"shutdown", "-h", "+1"}
	}
	if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
		return "", fmt.Errorf("%w: shutdown: %v", ErrDeviceControlUnavailable, err)
	}
	return "System is shutting down shortly", nil
}

// Restart reboots the machine after a grace period. Gated like Shutdown.
func (c *Controller) Restart() (string, error) {
	if !c.dangerous {
		return "", fmt.Errorf("%w: dangerous commands are disabled", ErrConfirmationRequired)
	}
	var argv []string
	switch runtime.GOOS {
	case "windows":
		argv = []string{"shutdown", "/r", "/t", "30"}
	default:
		argv = []string{"shutdown", "-r", "+1"}
	}
	if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
		return "", fmt.Errorf("%w: restart: %v", ErrDeviceControlUnavailable, err)
	}
	return "System is restarting shortly", nil
}
