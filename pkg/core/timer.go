package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	beginMinutesRe = regexp.MustCompile(`^\+([0-9]+)$`)
	beginClockRe   = regexp.MustCompile(`^([0-9][0-9])([0-9][0-9])$`)
)

// TimerOptions schedule runs: a single run with Once, otherwise on Cron or every Frequency minutes.
// Begin delays the first run, either "+MM" minutes from now or a "HHMM" wall clock time.
type TimerOptions struct {
	Once      bool
	Cron      string
	Begin     string
	Frequency int
}

// Update is one tick of the schedule.
type Update struct {
	// Last is set on the final update; no more follow it.
	Last bool
}

// Timer starts a schedule and returns a channel carrying one Update per run.
// It blocks for the initial delay set by Begin or Cron before returning.
func Timer(opts TimerOptions) (<-chan Update, error) {
	if !opts.Once && opts.Cron == "" && opts.Frequency <= 0 {
		return nil, fmt.Errorf("invalid frequency %d, must be a positive number of minutes", opts.Frequency)
	}

	var (
		delay time.Duration
		err   error
	)
	switch {
	case opts.Cron != "":
		delay, err = waitForCron(opts.Cron, time.Now())
		if err != nil {
			return nil, fmt.Errorf("invalid cron format '%s': %v", opts.Cron, err)
		}
	case opts.Begin != "":
		delay, err = beginDelay(opts.Begin, time.Now())
		if err != nil {
			return nil, err
		}
	}
	time.Sleep(delay)

	c := make(chan Update, 1)
	go func() {
		defer close(c)
		if opts.Once {
			c <- Update{Last: true}
			return
		}
		for {
			started := time.Now()
			c <- Update{}
			var next time.Duration
			if opts.Cron != "" {
				next, _ = waitForCron(opts.Cron, time.Now())
			} else {
				next = untilNextFrequency(started, time.Now(), opts.Frequency)
			}
			time.Sleep(next)
		}
	}()
	return c, nil
}

// beginDelay converts a begin expression into the wait before the first run.
// A "HHMM" time already past today means that time tomorrow.
func beginDelay(begin string, now time.Time) (time.Duration, error) {
	if parts := beginMinutesRe.FindStringSubmatch(begin); parts != nil {
		mins, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("invalid format for begin delay '%s': %v", begin, err)
		}
		return time.Duration(mins) * time.Minute, nil
	}
	parts := beginClockRe.FindStringSubmatch(begin)
	if parts == nil {
		return 0, fmt.Errorf("invalid format for begin delay '%s'", begin)
	}
	hour, _ := strconv.Atoi(parts[1])
	minute, _ := strconv.Atoi(parts[2])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day for begin delay '%s'", begin)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !start.After(now) {
		start = start.AddDate(0, 0, 1)
	}
	return start.Sub(now), nil
}

// untilNextFrequency is the wait from now until the next multiple of frequency
// minutes after started. A run that overran one or more slots waits for the next one.
func untilNextFrequency(started, now time.Time, frequency int) time.Duration {
	period := time.Duration(frequency) * time.Minute
	elapsed := now.Sub(started)
	if elapsed < 0 {
		elapsed = 0
	}
	return period - elapsed%period
}

// waitForCron is the wait from "from" until the cron expression next matches,
// counting "from" itself as a match.
func waitForCron(cronExpr string, from time.Time) (time.Duration, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return 0, err
	}
	next := sched.Next(from.Add(-1 * time.Nanosecond))
	return next.Sub(from), nil
}

// Timer runs cmd each time the schedule in timerOpts fires, stopping at the first error.
func (e *Executor) Timer(timerOpts TimerOptions, cmd func() error) error {
	c, err := Timer(timerOpts)
	if err != nil {
		return fmt.Errorf("error creating timer: %w", err)
	}
	for update := range c {
		if err := cmd(); err != nil {
			return err
		}
		if update.Last {
			break
		}
	}
	return nil
}
