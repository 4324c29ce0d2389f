package models

import (
	"strings"
	"time"
)

const (
	PlanTrial   = "trial"
	PlanPremium = "premium"
	PlanNone    = "none"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	IncomeHourly  = "hourly"
	IncomeWeekly  = "weekly"
	IncomeMonthly = "monthly"
)

const (
	LocaleBR = "pt-BR"
	LocaleUK = "en-GB"
)

// UserProfile — one document per verified phone number, keyed by the phone.
// Income fields are filled during onboarding; once OnboardingComplete is set
// they are treated as immutable inputs to the totals calculation.
type UserProfile struct {
	Phone              string `firestore:"phone" json:"phone"`
	OnboardingComplete bool   `firestore:"onboardingComplete" json:"onboarding_complete"`

	IncomeType    string  `firestore:"incomeType" json:"income_type"`
	HourlyRate    float64 `firestore:"hourlyRate" json:"hourly_rate"`
	WeeklyHours   float64 `firestore:"weeklyHours" json:"weekly_hours"`
	WeeklyIncome  float64 `firestore:"weeklyIncome" json:"weekly_income"`
	MonthlyIncome float64 `firestore:"monthlyIncome" json:"monthly_income"`
	PayDay        int     `firestore:"payDay" json:"pay_day"`

	HasSyncedBalance bool `firestore:"hasSyncedBalance" json:"has_synced_balance"`

	Plan        string    `firestore:"plan" json:"plan"`
	Status      string    `firestore:"status" json:"status"`
	TrialEndsAt time.Time `firestore:"trialEndsAt" json:"trial_ends_at"`

	LocaleMode string `firestore:"localeMode" json:"locale_mode"`

	LastAction        string    `firestore:"lastAction" json:"last_action"`
	LastInteractionAt time.Time `firestore:"lastInteractionAt" json:"last_interaction_at"`

	// Proactive-messaging bookkeeping. Each marker makes one scheduled job
	// idempotent per calendar period.
	DailyReportEnabled     bool      `firestore:"dailyReportEnabled" json:"daily_report_enabled"`
	LowBalanceAlertDate    string    `firestore:"lowBalanceAlertDate" json:"low_balance_alert_date"`
	LastExpenseAt          time.Time `firestore:"lastExpenseAt" json:"last_expense_at"`
	InactivityReminderSent bool      `firestore:"inactivityReminderSent" json:"inactivity_reminder_sent"`
	LastNudgeAt            time.Time `firestore:"lastNudgeAt" json:"last_nudge_at"`
	LastDailyReportDate    string    `firestore:"lastDailyReportDate" json:"last_daily_report_date"`
	LastWeeklyReportWeek   string    `firestore:"lastWeeklyReportWeek" json:"last_weekly_report_week"`
	TrialReminderSent      bool      `firestore:"trialReminderSent" json:"trial_reminder_sent"`

	CreatedAt time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updated_at"`
}

// Locale returns the profile locale, defaulting to en-GB.
func (u *UserProfile) Locale() string {
	if u != nil && u.LocaleMode == LocaleBR {
		return LocaleBR
	}
	return LocaleUK
}

// TrialExpired reports whether a trial plan has run out at the given instant.
// Premium plans never expire here.
func (u *UserProfile) TrialExpired(now time.Time) bool {
	return u.Plan == PlanTrial && !u.TrialEndsAt.IsZero() && now.After(u.TrialEndsAt)
}

// Subscribed reports whether the profile currently has access: premium, or a
// trial that has not yet ended.
func (u *UserProfile) Subscribed(now time.Time) bool {
	switch u.Plan {
	case PlanPremium:
		return true
	case PlanTrial:
		return !u.TrialExpired(now)
	}
	return false
}

// IsAnonymousID reports whether a transport identifier is an unverified LID
// rather than a phone number.
func IsAnonymousID(id string) bool {
	return strings.HasSuffix(id, "@lid")
}
