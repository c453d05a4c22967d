// Package notify handles notifications to the user.
package notify

import (
	"log"
	"os/exec"
)

// DesktopNotifier sends desktop notifications via notify-send. When the
// binary is missing it is a no-op, so headless setups work unchanged.
type DesktopNotifier struct {
	appName string
	command string
}

// NewDesktopNotifier creates a new desktop notifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{
		appName: "StudyLoop",
		command: "notify-send",
	}
}

// Notify sends a desktop notification, swallowing delivery errors. It
// satisfies the focus engine's Notifier interface.
func (n *DesktopNotifier) Notify(title, body string) {
	if _, err := exec.LookPath(n.command); err != nil {
		return
	}
	cmd := exec.Command(n.command,
		"--app-name="+n.appName,
		"--icon=dialog-information",
		title, body)
	if err := cmd.Run(); err != nil {
		log.Printf("[notify] desktop notification failed: %v", err)
	}
}
