// Package usage reports completion token consumption against the budget.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/netmatch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (no budget tracking); provider is then reported as given.
func New(br BudgetReader, provider string) *Service {
	if br != nil {
		provider = br.Provider()
	}
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	var start, end time.Time
	var limit, used, remaining int64 = 0, 0, -1

	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		if s.br != nil {
			limit = s.br.DailyLimit()
			used = s.br.DailyUsed()
			remaining = s.br.RemainingDaily()
		}
	default:
		period = domusage.PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	}

	b := domusage.NewBudget(limit, remaining, end.UnixMilli())
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), s.provider, used, b)
}
