package notify

import "testing"

func TestNotifyWithoutBinaryIsNoOp(t *testing.T) {
	n := &DesktopNotifier{appName: "StudyLoop", command: "studyloop-no-such-binary"}
	// Must return quietly when the notification command is absent.
	n.Notify("Goal reached", "You hit your goal.")
}
