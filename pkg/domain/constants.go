package domain

import "time"

const (
	// DefaultTCPPort is the port used by the TCP interface when none is configured.
	DefaultTCPPort = 11235

	// DefaultNotificationDuration is how long a condition notification stays visible.
	DefaultNotificationDuration = 3 * time.Second

	// DoneMessage is the notification shown when the procedure finishes.
	DoneMessage = "Done"
)
