package types

import (
	"time"

	errs "reportfire/errors"
)

// PolicyKind tags the populated variant of a SchedulePolicy.
type PolicyKind string

const (
	PolicyCron       PolicyKind = "cron"
	PolicyFireCount  PolicyKind = "fire_count"
	PolicyRunForever PolicyKind = "run_forever"
)

// CronPolicy fires according to a cron-style expression, unbounded.
type CronPolicy struct {
	Expression string `json:"expression"`
}

// FireCountPolicy fires exactly Total times, spaced by Interval, the first
// fire after Offset. Remaining counts the firings still owed; it starts at
// Total and only ever decreases while the job is live.
type FireCountPolicy struct {
	Total     int           `json:"total_fire_count"`
	Remaining int           `json:"remaining_fire_count"`
	Interval  time.Duration `json:"repeat_interval"`
	Offset    time.Duration `json:"initial_offset"`
}

// RunForeverPolicy fires indefinitely at a fixed interval.
type RunForeverPolicy struct {
	Interval time.Duration `json:"repeat_interval"`
	Offset   time.Duration `json:"initial_offset"`
}

// SchedulePolicy is a tagged union: exactly one variant is populated.
type SchedulePolicy struct {
	Cron       *CronPolicy       `json:"cron,omitempty"`
	FireCount  *FireCountPolicy  `json:"fire_count,omitempty"`
	RunForever *RunForeverPolicy `json:"run_forever,omitempty"`
}

// CronSchedule builds a cron-expression policy.
func CronSchedule(expression string) SchedulePolicy {
	return SchedulePolicy{Cron: &CronPolicy{Expression: expression}}
}

// FireCountSchedule builds a bounded policy with Remaining initialised to total.
func FireCountSchedule(total int, interval, offset time.Duration) SchedulePolicy {
	return SchedulePolicy{FireCount: &FireCountPolicy{
		Total:     total,
		Remaining: total,
		Interval:  interval,
		Offset:    offset,
	}}
}

// RunForeverSchedule builds an unbounded fixed-interval policy.
func RunForeverSchedule(interval, offset time.Duration) SchedulePolicy {
	return SchedulePolicy{RunForever: &RunForeverPolicy{Interval: interval, Offset: offset}}
}

// Kind returns the populated variant's tag, or "" when none is set.
func (p SchedulePolicy) Kind() PolicyKind {
	switch {
	case p.Cron != nil:
		return PolicyCron
	case p.FireCount != nil:
		return PolicyFireCount
	case p.RunForever != nil:
		return PolicyRunForever
	}
	return ""
}

// Validate checks the exactly-one-variant invariant and the numeric bounds of
// the populated variant. Cron expression syntax is validated by the schedule
// compiler, not here.
func (p SchedulePolicy) Validate() error {
	populated := 0
	if p.Cron != nil {
		populated++
	}
	if p.FireCount != nil {
		populated++
	}
	if p.RunForever != nil {
		populated++
	}
	if populated != 1 {
		return &errs.InvalidScheduleError{Reason: "exactly one schedule policy variant must be set"}
	}

	switch {
	case p.FireCount != nil:
		fc := p.FireCount
		if fc.Total < 0 {
			return &errs.InvalidScheduleError{Reason: "total fire count must not be negative"}
		}
		if fc.Remaining < 0 || fc.Remaining > fc.Total {
			return &errs.InvalidScheduleError{Reason: "remaining fire count must be between 0 and the total"}
		}
		if fc.Interval < 0 {
			return &errs.InvalidScheduleError{Reason: "repeat interval must not be negative"}
		}
		if fc.Offset < 0 {
			return &errs.InvalidScheduleError{Reason: "initial offset must not be negative"}
		}
	case p.RunForever != nil:
		rf := p.RunForever
		if rf.Interval < 0 {
			return &errs.InvalidScheduleError{Reason: "repeat interval must not be negative"}
		}
		if rf.Offset < 0 {
			return &errs.InvalidScheduleError{Reason: "initial offset must not be negative"}
		}
	case p.Cron != nil:
		if p.Cron.Expression == "" {
			return &errs.InvalidScheduleError{Reason: "cron expression must not be empty"}
		}
	}
	return nil
}

// Clone deep-copies the policy so stores can hand out records without sharing
// the mutable fire-count state.
func (p SchedulePolicy) Clone() SchedulePolicy {
	var out SchedulePolicy
	if p.Cron != nil {
		c := *p.Cron
		out.Cron = &c
	}
	if p.FireCount != nil {
		fc := *p.FireCount
		out.FireCount = &fc
	}
	if p.RunForever != nil {
		rf := *p.RunForever
		out.RunForever = &rf
	}
	return out
}
