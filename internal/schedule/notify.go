package schedule

import "github.com/gen2brain/beeep"

// SendNotification shows a desktop notification. Failures are the caller's
// choice to ignore; booking already succeeded by the time this runs.
func SendNotification(title, message string) error {
	return beeep.Notify(title, message, "")
}
