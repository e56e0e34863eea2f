// Package usage describes completion token consumption reports.
package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty means month.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, true
	case PeriodDay:
		return PeriodDay, true
	}
	return "", false
}

// Budget is a token budget snapshot. A zero limit means unlimited.
type Budget struct {
	tokensLimit     int64
	tokensRemaining int64
	resetsAt        int64 // unix millis
}

// NewBudget creates a Budget snapshot.
func NewBudget(limit, remaining, resetsAt int64) Budget {
	return Budget{tokensLimit: limit, tokensRemaining: remaining, resetsAt: resetsAt}
}

// TokensLimit returns the token cap.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left, -1 when unlimited.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether a limited budget is spent.
func (b Budget) IsExhausted() bool { return b.tokensLimit > 0 && b.tokensRemaining <= 0 }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }

// Report is completion usage for one period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	tokensUsed  int64
	budget      Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, used int64, b Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		tokensUsed:  used,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the completion provider name.
func (r *Report) Provider() string { return r.provider }

// TokensUsed returns tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r *Report) Budget() Budget { return r.budget }
