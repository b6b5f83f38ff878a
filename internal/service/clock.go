package service

import "time"

// SystemClock is the wall-clock implementation of port.Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
