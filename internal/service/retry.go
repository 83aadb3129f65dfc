package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// RetryPolicy bounds the retries of a call against the confidential network. Only transient conditions are
// retried: access grants that the co-validators have not observed yet and network hiccups.
type RetryPolicy struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	Multiplier   float64       `yaml:"multiplier"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// DefaultRetryPolicy returns 10 attempts, starting at 500ms and doubling up to 8s between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     8 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}

	return p
}

// Delay returns the wait after the `failedAttempts`-th failed attempt (1-based). It never decreases and never exceeds MaxDelay.
func (p RetryPolicy) Delay(failedAttempts int) time.Duration {
	p = p.normalized()

	delay := float64(p.InitialDelay)
	for i := 1; i < failedAttempts; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}

	return time.Duration(delay)
}

// Do calls `fn` until it succeeds, fails with a non-retryable error or the attempt budget is spent.
// `fn` receives the 1-based attempt number.
func (p RetryPolicy) Do(ctx context.Context, clock timingutils.Clock, opName string, fn func(attempt int) error) error {
	p = p.normalized()

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		if !errorcode.IsRetryable(err) {
			return err
		}

		if attempt >= p.MaxAttempts {
			return errors.Wrapf(err, "%v 已尝试 %v 次", opName, attempt)
		}

		delay := p.Delay(attempt)
		log.Warnf("%v 第 %v 次尝试失败，%v 后重试: %v", opName, attempt, delay, err)

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%v 已取消，最后一次错误: %v", opName, err)
		case <-clock.After(delay):
		}
	}
}
