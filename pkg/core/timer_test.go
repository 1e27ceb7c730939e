package core

import (
	"errors"
	"testing"
	"time"
)

func TestWaitForCron(t *testing.T) {
	tests := []struct {
		name string
		cron string
		from string
		wait time.Duration
		err  error
	}{
		{"current minute", "1 * * * *", "2018-10-10T10:01:00Z", 0, nil},
		{"next minute", "1 * * * *", "2018-10-10T10:00:00Z", 1 * time.Minute, nil},
		{"next day by hour", "* 1 * * *", "2018-10-10T10:00:00Z", 15 * time.Hour, nil},
		{"current minute but seconds in", "1 * * * *", "2018-10-10T10:01:10Z", 59*time.Minute + 50*time.Second, nil}, // this line tests that we use the current minute, and not wait for "-10"
		{"midnight next day", "0 0 * * *", "2021-11-30T10:00:00Z", 14 * time.Hour, nil},
		{"first day next month in next year", "0 0 1 * *", "2020-12-30T10:00:00Z", 14*time.Hour + 24*time.Hour, nil}, // this line tests that we can handle rolling month correctly
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, err := time.Parse(time.RFC3339, tt.from)
			if err != nil {
				t.Fatalf("unable to parse from %s: %v", tt.from, err)
			}
			result, err := waitForCron(tt.cron, from)
			switch {
			case (err != nil && tt.err == nil) || (err == nil && tt.err != nil) || (err != nil && tt.err != nil && err.Error() != tt.err.Error()):
				t.Errorf("waitForCron(%s, %s) error = %v, wantErr %v", tt.cron, tt.from, err, tt.err)
			case result != tt.wait:
				t.Errorf("waitForCron(%s, %s) = %v, want %v", tt.cron, tt.from, result, tt.wait)
			}
		})
	}
}

func TestExecutorTimerOnce(t *testing.T) {
	e := &Executor{}
	runs := 0
	if err := e.Timer(TimerOptions{Once: true}, func() error {
		runs++
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != 1 {
		t.Errorf("ran %d times, want 1", runs)
	}
}

func TestExecutorTimerErrors(t *testing.T) {
	e := &Executor{}
	wantErr := errors.New("dump failed")
	if err := e.Timer(TimerOptions{Once: true}, func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("got error %v, want %v", err, wantErr)
	}
	if err := e.Timer(TimerOptions{}, func() error { return nil }); err == nil {
		t.Error("expected error for missing frequency")
	}
	if err := e.Timer(TimerOptions{Cron: "not a cron"}, func() error { return nil }); err == nil {
		t.Error("expected error for invalid cron")
	}
}

func TestBeginDelay(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 30, 15, 0, time.UTC)
	tests := []struct {
		begin   string
		want    time.Duration
		wantErr bool
	}{
		{"+0", 0, false},
		{"+15", 15 * time.Minute, false},
		{"1130", 59*time.Minute + 45*time.Second, false},
		{"1030", 23*time.Hour + 59*time.Minute + 45*time.Second, false},
		{"0900", 22*time.Hour + 29*time.Minute + 45*time.Second, false},
		{"2460", 0, true},
		{"+x", 0, true},
		{"10:30", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.begin, func(t *testing.T) {
			got, err := beginDelay(tt.begin, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("beginDelay(%q) error = %v, wantErr %v", tt.begin, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("beginDelay(%q) = %v, want %v", tt.begin, got, tt.want)
			}
		})
	}
}

func TestUntilNextFrequency(t *testing.T) {
	started := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{"instant run", 0, 60 * time.Minute},
		{"short run", 5 * time.Minute, 55 * time.Minute},
		{"overran one slot", 70 * time.Minute, 50 * time.Minute},
		{"clock went backwards", -time.Minute, 60 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := untilNextFrequency(started, started.Add(tt.elapsed), 60); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
