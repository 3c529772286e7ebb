package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/meenmo/trsreset/calendar"
	"github.com/meenmo/trsreset/leg"
	"github.com/meenmo/trsreset/market"
	"github.com/meenmo/trsreset/utils"
)

type scheduleOutput struct {
	Dates []string `json:"dates,omitempty"`
	Error string   `json:"error,omitempty"`
}

func runSchedule(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	start := fs.String("start", "", "First date, YYYY-MM-DD")
	end := fs.String("end", "", "Last date, YYYY-MM-DD")
	period := fs.String("period", "3M", "Roll period, e.g. 1M, 3M, 1Y")
	cal := fs.String("calendar", string(calendar.NONE), "Holiday calendar: TARGET, JPN, USD, KRW, GBP, NONE")
	conv := fs.String("convention", string(calendar.ModifiedFollowing), "UNADJUSTED, FOLLOWING, MODIFIED_FOLLOWING or PRECEDING")
	reset := fs.Bool("reset", false, "Drop the first date, as for a reset schedule")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		fmt.Fprintln(stderr, "Usage: trsreset schedule -start 2025-01-01 -end 2026-01-01 [-period 3M] [-calendar TARGET] [-reset]")
		return 0
	}

	out, err := schedule(*start, *end, *period, *cal, *conv, *reset)
	if err != nil {
		b, _ := json.Marshal(scheduleOutput{Error: err.Error()})
		fmt.Fprintln(stdout, string(b))
		return 1
	}
	b, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(b))
	return 0
}

func schedule(start, end, period, cal, conv string, reset bool) (*scheduleOutput, error) {
	s, err := utils.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}
	calID := calendar.CalendarID(strings.ToUpper(cal))
	convention := calendar.Convention(strings.ToUpper(conv))

	var dates []string
	if reset {
		sched, err := leg.NewSchedule(s, e, market.Tenor(period), calID, convention)
		if err != nil {
			return nil, err
		}
		for _, d := range sched.Dates {
			dates = append(dates, d.Format(utils.DateLayout))
		}
	} else {
		generated, err := leg.GenerateDates(s, e, market.Tenor(period), calID, convention)
		if err != nil {
			return nil, err
		}
		for _, d := range generated {
			dates = append(dates, d.Format(utils.DateLayout))
		}
	}
	return &scheduleOutput{Dates: dates}, nil
}
