// ABOUTME: Best-effort opener for URLs in the system browser
// ABOUTME: Per-OS dispatch; failures are reported but callers treat them as non-fatal

package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenURL opens url in the user's default browser. Best-effort: the
// device flow continues even if this fails, since the verification URL
// is also shown to the user.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}

	go func() { _ = cmd.Wait() }()
	return nil
}
