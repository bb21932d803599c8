package oauth

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
)

// Ensure SystemBrowser implements the interface.
var _ driven.BrowserOpener = SystemBrowser{}

// linuxOpeners are tried in order on Linux and BSD desktops.
var linuxOpeners = []string{"xdg-open", "gnome-open", "kde-open", "sensible-browser"}

// SystemBrowser opens URLs with the platform's default browser.
type SystemBrowser struct{}

// Open opens the default browser to the given URL.
func (SystemBrowser) Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		for _, name := range linuxOpeners {
			if path, err := exec.LookPath(name); err == nil {
				cmd = exec.Command(path, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no browser opener found on %s", runtime.GOOS)
		}
	}

	return cmd.Start()
}
