package services

import (
	"time"

	"prizedraw/domain/interfaces"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall-clock reader used outside tests.
func SystemClock() interfaces.Clock {
	return systemClock{}
}
