package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"centavo/internal/models"
)

// Job cadence and idempotency policy. Every job scans the active user set and
// marks each profile with a per-period marker, so a repeated run within the
// same period sends nothing. The redis lock covers the cross-instance case.
const (
	inactivityThreshold = 6 * time.Hour
	trialReminderWindow = 12 * time.Hour

	// Daily summaries go out in the evening, local time, so they cover the
	// day they report instead of firing on the first tick after midnight.
	dailyReportHour = 20

	jobTickInterval = 10 * time.Minute
	jobLockTTL      = 5 * time.Minute
)

type SchedulerService struct {
	profiles  ProfileStore
	ledger    LedgerStore
	totals    *TotalsService
	transport Transport
	locker    JobLocker
	log       *zap.Logger

	checkoutURL string
}

func NewSchedulerService(profiles ProfileStore, ledger LedgerStore, totals *TotalsService, transport Transport, locker JobLocker, checkoutURL string, log *zap.Logger) *SchedulerService {
	return &SchedulerService{
		profiles:    profiles,
		ledger:      ledger,
		totals:      totals,
		transport:   transport,
		locker:      locker,
		log:         log,
		checkoutURL: checkoutURL,
	}
}

// Start runs all jobs on a shared ticker until the context is cancelled.
func (s *SchedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(jobTickInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.runAll(ctx, now)
			}
		}
	}()
}

func (s *SchedulerService) runAll(ctx context.Context, now time.Time) {
	jobs := []struct {
		name string
		run  func(context.Context, time.Time) error
	}{
		{"inactivity_reminders", s.RunInactivityReminders},
		{"daily_reports", s.RunDailyReports},
		{"weekly_reports", s.RunWeeklyReports},
		{"trial_reminders", s.RunTrialReminders},
	}
	for _, job := range jobs {
		if err := s.runLocked(ctx, job.name, now, job.run); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", job.name), zap.Error(err))
		}
	}
}

func (s *SchedulerService) runLocked(ctx context.Context, name string, now time.Time, run func(context.Context, time.Time) error) error {
	ok, err := s.locker.Acquire(ctx, name, jobLockTTL)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil
	}
	defer func() {
		if err := s.locker.Release(ctx, name); err != nil {
			s.log.Warn("release lock failed", zap.String("job", name), zap.Error(err))
		}
	}()
	return run(ctx, now)
}

// RunInactivityReminders nudges users whose last expense is older than six
// hours, at most once until a new expense resets the flag.
func (s *SchedulerService) RunInactivityReminders(ctx context.Context, now time.Time) error {
	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if !profile.OnboardingComplete || profile.InactivityReminderSent {
			continue
		}
		if profile.LastExpenseAt.IsZero() || now.Sub(profile.LastExpenseAt) < inactivityThreshold {
			continue
		}
		if err := s.transport.Send(ctx, profile.Phone, msgInactivityNudge(profile.Locale())); err != nil {
			s.log.Warn("nudge send failed", zap.String("phone", profile.Phone), zap.Error(err))
			continue
		}
		profile.InactivityReminderSent = true
		profile.LastNudgeAt = now
		if err := s.profiles.Save(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

// RunDailyReports sends one summary per calendar day to users with the report
// enabled, from 20:00 in the user's timezone onwards.
func (s *SchedulerService) RunDailyReports(ctx context.Context, now time.Time) error {
	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if !profile.OnboardingComplete || !profile.DailyReportEnabled {
			continue
		}
		local := now.In(UserLocation(profile))
		if local.Hour() < dailyReportHour {
			continue
		}
		today := local.Format("2006-01-02")
		if profile.LastDailyReportDate == today {
			continue
		}
		rows, err := s.ledger.List(ctx, profile.Phone)
		if err != nil {
			return err
		}
		totals := s.totals.Compute(rows, profile, now)
		sym := currencySymbol(profile.Locale())
		report := msgDailyReport(profile.Locale(),
			sym+" "+totals.TodayTotal.StringFixed(2),
			sym+" "+totals.MonthTotal.StringFixed(2),
			sym+" "+totals.Balance.StringFixed(2),
			totals.StatusMonth)
		if err := s.transport.Send(ctx, profile.Phone, report); err != nil {
			s.log.Warn("daily report send failed", zap.String("phone", profile.Phone), zap.Error(err))
			continue
		}
		profile.LastDailyReportDate = today
		if err := s.profiles.Save(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

// RunWeeklyReports sends one summary per ISO week, on Mondays.
func (s *SchedulerService) RunWeeklyReports(ctx context.Context, now time.Time) error {
	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if !profile.OnboardingComplete || !profile.DailyReportEnabled {
			continue
		}
		local := now.In(UserLocation(profile))
		if local.Weekday() != time.Monday {
			continue
		}
		year, week := local.ISOWeek()
		marker := fmt.Sprintf("%d-W%02d", year, week)
		if profile.LastWeeklyReportWeek == marker {
			continue
		}
		rows, err := s.ledger.List(ctx, profile.Phone)
		if err != nil {
			return err
		}
		totals := s.totals.Compute(rows, profile, now)
		sym := currencySymbol(profile.Locale())
		report := msgWeeklyReport(profile.Locale(),
			sym+" "+totals.WeekTotal.StringFixed(2),
			sym+" "+totals.MonthTotal.StringFixed(2),
			sym+" "+totals.Balance.StringFixed(2),
			totals.StatusWeek)
		if err := s.transport.Send(ctx, profile.Phone, report); err != nil {
			s.log.Warn("weekly report send failed", zap.String("phone", profile.Phone), zap.Error(err))
			continue
		}
		profile.LastWeeklyReportWeek = marker
		if err := s.profiles.Save(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

// RunTrialReminders sends a single upsell shortly before a trial ends.
func (s *SchedulerService) RunTrialReminders(ctx context.Context, now time.Time) error {
	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if profile.Plan != models.PlanTrial || profile.TrialReminderSent || profile.TrialEndsAt.IsZero() {
			continue
		}
		remaining := profile.TrialEndsAt.Sub(now)
		if remaining <= 0 || remaining > trialReminderWindow {
			continue
		}
		if err := s.transport.Send(ctx, profile.Phone, msgTrialReminder(profile.Locale(), s.checkoutURL)); err != nil {
			s.log.Warn("trial reminder send failed", zap.String("phone", profile.Phone), zap.Error(err))
			continue
		}
		profile.TrialReminderSent = true
		if err := s.profiles.Save(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}
