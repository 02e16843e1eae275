package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	errs "reportfire/errors"
	"reportfire/types"
)

// cronParser accepts five or six field expressions (seconds optional) plus
// @descriptors. Quartz-form expressions are normalised before parsing.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// TriggerSpec is the compiled firing timeline of a schedule policy. It is a
// value type with no mutable state, safe to share across goroutines.
type TriggerSpec struct {
	cron     cron.Schedule
	interval time.Duration
	offset   time.Duration
	limit    int
}

// First returns the time of the first firing after now.
func (s TriggerSpec) First(now time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(now)
	}
	return now.Add(s.offset)
}

// Next returns the firing that follows the given one.
func (s TriggerSpec) Next(after time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(after)
	}
	return after.Add(s.interval)
}

// Limit is the number of firings still allowed, or a negative value when the
// trigger is unbounded.
func (s TriggerSpec) Limit() int {
	return s.limit
}

// Bounded reports whether the trigger self-terminates after Limit firings.
func (s TriggerSpec) Bounded() bool {
	return s.limit >= 0
}

// Compile turns a schedule policy into a trigger spec. It is pure: invalid
// policies are rejected with InvalidScheduleError and nothing is mutated.
//
// A fire-count policy compiles with its Remaining count, not its Total, so a
// job resumed mid-way only fires the occurrences it is still owed.
func Compile(policy types.SchedulePolicy) (TriggerSpec, error) {
	if err := policy.Validate(); err != nil {
		return TriggerSpec{}, err
	}

	switch policy.Kind() {
	case types.PolicyCron:
		sched, err := cronParser.Parse(normalizeCron(policy.Cron.Expression))
		if err != nil {
			return TriggerSpec{}, &errs.InvalidScheduleError{
				Reason: fmt.Sprintf("cannot parse cron expression %q: %v", policy.Cron.Expression, err),
			}
		}
		return TriggerSpec{cron: sched, limit: -1}, nil

	case types.PolicyFireCount:
		fc := policy.FireCount
		return TriggerSpec{interval: fc.Interval, offset: fc.Offset, limit: fc.Remaining}, nil

	case types.PolicyRunForever:
		rf := policy.RunForever
		return TriggerSpec{interval: rf.Interval, offset: rf.Offset, limit: -1}, nil
	}

	return TriggerSpec{}, &errs.InvalidScheduleError{Reason: "no schedule policy variant set"}
}

// normalizeCron maps quartz-form expressions onto the supported grammar: a
// seventh (year) field is dropped. The parser itself already accepts '?' for
// day fields and start/step tokens like 1/1.
func normalizeCron(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 7 {
		fields = fields[:6]
	}
	return strings.Join(fields, " ")
}
