// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wikicensorship/dnstrace/internal/logger"
)

// RetryConfig configures how often and how fast a failing operation is retried.
type RetryConfig struct {
	// Count is the number of retries after the first attempt.
	Count int `json:"count" yaml:"count" mapstructure:"count"`
	// Delay is the pause before the first retry. It doubles with every retry.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
	// MaxDelay caps the pause between two attempts. Zero means no cap.
	MaxDelay time.Duration `json:"maxDelay" yaml:"maxDelay" mapstructure:"maxDelay"`
}

// Effector will be the function called by the Retry function
type Effector func(context.Context) error

// Retry runs the effector and retries it with an exponential backoff until it
// succeeds or the retry budget is exhausted. A retry that could not start
// before the deadline of ctx is not waited for.
func Retry(effector Effector, rc RetryConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for attempt := 1; ; attempt++ {
			err := effector(ctx)
			if err == nil {
				return nil
			}
			if attempt > rc.Count {
				if attempt == 1 {
					return err
				}
				return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
			}

			delay := rc.backoff(attempt)
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
				return fmt.Errorf("no time left for attempt %d: %w", attempt+1, err)
			}
			log.WarnContext(ctx, "Attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

func (rc RetryConfig) backoff(attempt int) time.Duration {
	d := getExpBackoff(rc.Delay, attempt)
	if rc.MaxDelay > 0 && d > rc.MaxDelay {
		return rc.MaxDelay
	}
	return d
}

// getExpBackoff calculates the exponential delay for a given iteration.
// The first iteration is 1.
func getExpBackoff(initialDelay time.Duration, iteration int) time.Duration {
	if iteration <= 1 {
		return initialDelay
	}
	return time.Duration(math.Pow(2, float64(iteration-1))) * initialDelay
}
