package util

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// StepClock returns Start, Start+Step, Start+2*Step, ... on successive calls.
// Not safe for concurrent use.
type StepClock struct {
	Start time.Time
	Step  time.Duration
	n     int64
}

func (c *StepClock) Now() time.Time {
	t := c.Start.Add(time.Duration(c.n) * c.Step)
	c.n++
	return t
}
