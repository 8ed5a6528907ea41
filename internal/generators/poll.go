package generators

import (
	"context"
	"strings"
	"time"

	"popup-storybook/server/internal/interfaces"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 60
)

type taskState int

const (
	taskRunning taskState = iota
	taskSucceeded
	taskFailed
)

// vendorState maps a vendor task status to a taskState, ignoring case.
func vendorState(status string) taskState {
	switch strings.ToLower(status) {
	case "succeeded":
		return taskSucceeded
	case "failed":
		return taskFailed
	default:
		return taskRunning
	}
}

// taskStatus is what one poll of a submitted task reports.
type taskStatus struct {
	state   taskState
	result  *interfaces.GenerationResult
	message string
}

// Poller drives the bounded poll loop of submit-then-poll vendors.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPoller polls every 2s, 60 times.
func DefaultPoller() Poller {
	return Poller{Interval: defaultPollInterval, MaxAttempts: defaultMaxPollAttempts}
}

func (p Poller) normalized() Poller {
	if p.Interval <= 0 {
		p.Interval = defaultPollInterval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxPollAttempts
	}
	return p
}

// Wait sleeps one interval before every check and stops on the first
// terminal status. A check error counts as "still running".
func (p Poller) Wait(ctx context.Context, provider string, check func(context.Context) (*taskStatus, error)) (*interfaces.GenerationResult, error) {
	p = p.normalized()

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Interval):
		}

		status, err := check(ctx)
		if err != nil {
			continue
		}
		switch status.state {
		case taskSucceeded:
			if status.result == nil || status.result.URL == "" {
				return nil, newUnrecognizedShape(provider, 200)
			}
			return status.result, nil
		case taskFailed:
			msg := status.message
			if msg == "" {
				msg = "generation failed"
			}
			return nil, newProviderError(provider, 0, "%s", msg)
		}
	}

	return nil, newGenerationTimeout(provider, p.MaxAttempts, p.Interval)
}
