package budget

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestPace(t *testing.T) {
	// June 2026 has 30 days; budget $300.00 means $10.00/day allowance.
	const budget = 30000

	tests := []struct {
		name         string
		entries      []Entry
		today        time.Time
		validateFunc func(t *testing.T, stats PaceStats)
	}{
		{
			name: "steady spend stays on pace",
			entries: []Entry{
				{Date: day(2026, time.June, 1), AmountMinor: 900},
				{Date: day(2026, time.June, 2), AmountMinor: 900},
				{Date: day(2026, time.June, 3), AmountMinor: 900},
			},
			today: day(2026, time.June, 3),
			validateFunc: func(t *testing.T, stats PaceStats) {
				if stats.DaysOnPace != 3 || stats.CurrentStreak != 3 || stats.BestStreak != 3 {
					t.Errorf("on-pace/current/best = %d/%d/%d, want 3/3/3",
						stats.DaysOnPace, stats.CurrentStreak, stats.BestStreak)
				}
				if !stats.OnPaceToday {
					t.Error("expected OnPaceToday")
				}
				// 2700 over 3 days projects to 27000 for the month.
				if stats.ProjectedMonthlyMinor != 27000 {
					t.Errorf("projected = %d, want 27000", stats.ProjectedMonthlyMinor)
				}
			},
		},
		{
			name: "early splurge breaks the streak until allowance catches up",
			entries: []Entry{
				{Date: day(2026, time.June, 1), AmountMinor: 2500},
			},
			today: day(2026, time.June, 4),
			validateFunc: func(t *testing.T, stats PaceStats) {
				// Allowance crosses 2500 on day 3 (3*1000 >= 2500).
				if stats.Daily[0].OnPace {
					t.Error("day 1 should be over pace")
				}
				if stats.Daily[1].OnPace {
					t.Error("day 2 should be over pace")
				}
				if !stats.Daily[2].OnPace {
					t.Error("day 3 should be back on pace")
				}
				if stats.DaysOnPace != 2 || stats.CurrentStreak != 2 {
					t.Errorf("on-pace/current = %d/%d, want 2/2", stats.DaysOnPace, stats.CurrentStreak)
				}
			},
		},
		{
			name: "exactly on the allowance counts as on pace",
			entries: []Entry{
				{Date: day(2026, time.June, 1), AmountMinor: 1000},
			},
			today: day(2026, time.June, 1),
			validateFunc: func(t *testing.T, stats PaceStats) {
				if !stats.Daily[0].OnPace {
					t.Error("spend equal to allowance should be on pace")
				}
			},
		},
		{
			name:    "future month evaluates no days",
			entries: nil,
			today:   day(2026, time.May, 15),
			validateFunc: func(t *testing.T, stats PaceStats) {
				if stats.EvaluationEndDay != 0 {
					t.Errorf("evaluationEndDay = %d, want 0", stats.EvaluationEndDay)
				}
				if stats.DaysOnPace != 0 || stats.ProjectedMonthlyMinor != 0 {
					t.Errorf("expected empty stats, got %+v", stats)
				}
				for _, p := range stats.Daily {
					if p.HasData {
						t.Errorf("day %d marked HasData in a future month", p.Day)
					}
				}
			},
		},
		{
			name: "past month evaluates every day",
			entries: []Entry{
				{Date: day(2026, time.June, 30), AmountMinor: 100},
			},
			today: day(2026, time.August, 1),
			validateFunc: func(t *testing.T, stats PaceStats) {
				if stats.EvaluationEndDay != 30 {
					t.Errorf("evaluationEndDay = %d, want 30", stats.EvaluationEndDay)
				}
				if stats.DaysOnPace != 30 {
					t.Errorf("daysOnPace = %d, want 30", stats.DaysOnPace)
				}
			},
		},
		{
			name: "entries outside the month are ignored",
			entries: []Entry{
				{Date: day(2026, time.May, 31), AmountMinor: 99999},
				{Date: day(2026, time.July, 1), AmountMinor: 99999},
				{Date: day(2026, time.June, 2), AmountMinor: 500},
			},
			today: day(2026, time.June, 2),
			validateFunc: func(t *testing.T, stats PaceStats) {
				if stats.Daily[1].CumulativeMinor != 500 {
					t.Errorf("cumulative = %d, want 500", stats.Daily[1].CumulativeMinor)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Pace(2026, time.June, budget, tt.entries, tt.today)
			if stats.DaysInMonth != 30 {
				t.Fatalf("daysInMonth = %d, want 30", stats.DaysInMonth)
			}
			if len(stats.Daily) != 30 {
				t.Fatalf("daily points = %d, want 30", len(stats.Daily))
			}
			tt.validateFunc(t, stats)
		})
	}
}

func TestSum(t *testing.T) {
	entries := []Entry{
		{AmountMinor: 5000},
		{AmountMinor: 2000, OneTime: true},
		{AmountMinor: 1000},
	}
	totals := Sum(10000, entries)
	if totals.SpendMinor != 8000 {
		t.Errorf("spend = %d, want 8000", totals.SpendMinor)
	}
	if totals.RecurringMinor != 6000 || totals.OneTimeMinor != 2000 {
		t.Errorf("recurring/oneTime = %d/%d, want 6000/2000", totals.RecurringMinor, totals.OneTimeMinor)
	}
	if totals.RemainingMinor != 2000 {
		t.Errorf("remaining = %d, want 2000", totals.RemainingMinor)
	}
	if totals.ProgressPct != 80 {
		t.Errorf("progress = %d, want 80", totals.ProgressPct)
	}

	over := Sum(5000, entries)
	if over.RemainingMinor != 0 {
		t.Errorf("remaining when over budget = %d, want 0", over.RemainingMinor)
	}
	if over.ProgressPct != 100 {
		t.Errorf("progress when over budget = %d, want 100 (capped)", over.ProgressPct)
	}
}
