package tui

import "time"

// TickMsg fires once per render period and triggers a drain of the sample channel.
type TickMsg time.Time
