// Package budget computes month pace analytics over a ledger of dated
// spending entries. Like the ledger package it is pure: minor-unit integers
// in, plain data out, safe to recompute on every request.
package budget

import "time"

// Entry is one spending record inside a month.
type Entry struct {
	// Date is the day the spend happened; only entries falling inside the
	// evaluated month count.
	Date time.Time `json:"date"`

	// AmountMinor is the spend in the budget currency's minor unit.
	AmountMinor int64 `json:"amountMinor"`

	// OneTime marks a non-recurring spend, reported separately in totals.
	OneTime bool `json:"oneTime"`
}

// DayPoint is one day of the cumulative pace chart.
type DayPoint struct {
	Day             int   `json:"day"`
	SpendMinor      int64 `json:"spendMinor"`
	CumulativeMinor int64 `json:"cumulativeMinor"`

	// AllowedMinor is the prorated allowance budget*day/daysInMonth,
	// rounded for display. Pace itself is decided without rounding.
	AllowedMinor int64 `json:"allowedMinor"`

	OnPace  bool `json:"onPace"`
	HasData bool `json:"hasData"`
}

// PaceStats summarizes how a month is tracking against its flexible budget.
type PaceStats struct {
	DaysOnPace       int  `json:"daysOnPace"`
	CurrentStreak    int  `json:"currentStreak"`
	BestStreak       int  `json:"bestStreak"`
	EvaluationEndDay int  `json:"evaluationEndDay"`
	DaysInMonth      int  `json:"daysInMonth"`
	OnPaceToday      bool `json:"onPaceToday"`

	// ProjectedMonthlyMinor extrapolates the average daily spend so far
	// across the whole month.
	ProjectedMonthlyMinor int64 `json:"projectedMonthlyMinor"`

	Daily []DayPoint `json:"daily"`
}

// Totals aggregates a month's entries.
type Totals struct {
	SpendMinor     int64 `json:"spendMinor"`
	RecurringMinor int64 `json:"recurringMinor"`
	OneTimeMinor   int64 `json:"oneTimeMinor"`

	// RemainingMinor is the budget left, floored at zero.
	RemainingMinor int64 `json:"remainingMinor"`

	// ProgressPct is spend/budget as 0-100, capped at 100.
	ProgressPct int `json:"progressPct"`
}

// Pace evaluates one month against a flexible budget. A day is "on pace"
// when cumulative spend through that day does not exceed the prorated
// allowance budget*day/daysInMonth; the comparison is done on cross products
// so no rounding slack is needed. Days after "today" (for the current month)
// appear in the chart with HasData=false and do not count toward streaks.
func Pace(year int, month time.Month, budgetMinor int64, entries []Entry, today time.Time) PaceStats {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	evaluationEndDay := daysInMonth
	if today.Year() == year && today.Month() == month {
		evaluationEndDay = today.Day()
	} else if today.Before(first) {
		evaluationEndDay = 0
	}

	dailyTotals := make([]int64, daysInMonth)
	for _, e := range entries {
		if e.Date.Year() != year || e.Date.Month() != month {
			continue
		}
		day := e.Date.Day()
		if day >= 1 && day <= daysInMonth {
			dailyTotals[day-1] += e.AmountMinor
		}
	}

	stats := PaceStats{
		EvaluationEndDay: evaluationEndDay,
		DaysInMonth:      daysInMonth,
		OnPaceToday:      true,
		Daily:            make([]DayPoint, 0, daysInMonth),
	}

	var cumulative, cumulativeAtEval int64
	runningStreak := 0
	for day := 1; day <= daysInMonth; day++ {
		spend := dailyTotals[day-1]
		cumulative += spend

		// cumulative <= budget*day/daysInMonth, exactly.
		onPace := cumulative*int64(daysInMonth) <= budgetMinor*int64(day)
		hasData := day <= evaluationEndDay

		if hasData {
			if onPace {
				stats.DaysOnPace++
				runningStreak++
				if runningStreak > stats.BestStreak {
					stats.BestStreak = runningStreak
				}
			} else {
				runningStreak = 0
			}
			if day == evaluationEndDay {
				stats.OnPaceToday = onPace
				stats.CurrentStreak = runningStreak
				cumulativeAtEval = cumulative
			}
		}

		stats.Daily = append(stats.Daily, DayPoint{
			Day:             day,
			SpendMinor:      spend,
			CumulativeMinor: cumulative,
			AllowedMinor:    roundDiv(budgetMinor*int64(day), int64(daysInMonth)),
			OnPace:          onPace,
			HasData:         hasData,
		})
	}

	if stats.CurrentStreak > stats.BestStreak {
		stats.BestStreak = stats.CurrentStreak
	}
	if evaluationEndDay > 0 {
		stats.ProjectedMonthlyMinor = roundDiv(cumulativeAtEval*int64(daysInMonth), int64(evaluationEndDay))
	}
	return stats
}

// Sum totals a month's entries against its budget.
func Sum(budgetMinor int64, entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		t.SpendMinor += e.AmountMinor
		if e.OneTime {
			t.OneTimeMinor += e.AmountMinor
		} else {
			t.RecurringMinor += e.AmountMinor
		}
	}
	if t.SpendMinor < budgetMinor {
		t.RemainingMinor = budgetMinor - t.SpendMinor
	}
	if budgetMinor > 0 {
		pct := roundDiv(t.SpendMinor*100, budgetMinor)
		if pct > 100 {
			pct = 100
		}
		t.ProgressPct = int(pct)
	}
	return t
}

// roundDiv is integer division rounded to nearest, away from zero on .5.
func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	if (num < 0) != (den < 0) {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}
