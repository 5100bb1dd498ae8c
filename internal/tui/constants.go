package tui

import "time"

const (
	// Timeouts and Intervals
	TickInterval        = time.Second
	FetchTimeout        = 5 * time.Second
	NotificationTimeout = 3 * time.Second

	// Speed graph keeps two minutes of samples at the default tick
	SpeedHistoryLength = 120

	// Layout
	ListWidthRatio         = 0.6
	HeaderHeight           = 3
	ProgressBarWidthOffset = 4
	DefaultPaddingX        = 1
	DefaultPaddingY        = 0

	// Units
	Megabyte = 1024.0 * 1024.0
)
