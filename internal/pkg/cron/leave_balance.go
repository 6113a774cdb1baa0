package cron

import (
	"context"
	"log/slog"
	"time"

	leavesvc "github.com/worklane/timeledger-backend-go/internal/service/leave"
)

type LeaveBalanceJobs struct {
	balanceSvc *leavesvc.BalanceService
}

func NewLeaveBalanceJobs(balanceSvc *leavesvc.BalanceService) *LeaveBalanceJobs {
	return &LeaveBalanceJobs{balanceSvc: balanceSvc}
}

func (j *LeaveBalanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	scheduler.AddJob("ensure_yearly_leave_balances", interval, j.EnsureYearlyBalances)
}

// EnsureYearlyBalances backfills missing yearly grants for the current year.
// Covers both the January rollover and employees activated mid-year; the
// sweep only creates rows that are missing, so re-running it is free.
func (j *LeaveBalanceJobs) EnsureYearlyBalances(ctx context.Context) error {
	year := time.Now().UTC().Year()
	slog.Info("Cron: Ensuring yearly leave balances", "year", year)
	return j.balanceSvc.EnsureYear(ctx, year)
}
