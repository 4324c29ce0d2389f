package services

import (
	"time"

	"github.com/shopspring/decimal"

	"centavo/internal/models"
)

// Pace status buckets. The boundaries are product policy, not derived.
const (
	PaceExcellent = "EXCELLENT"
	PaceNormal    = "NORMAL"
	PaceAttention = "ATTENTION"
	PaceRisk      = "RISK"
)

// PacePolicy holds the configurable pace-ratio boundaries.
type PacePolicy struct {
	Excellent float64
	Normal    float64
	Attention float64
}

// DefaultPacePolicy carries the historical boundaries.
var DefaultPacePolicy = PacePolicy{Excellent: 0.9, Normal: 1.05, Attention: 1.25}

// Totals is the derived view over a user's ledger. There is no stored balance
// anywhere; the ledger is the single source of truth.
type Totals struct {
	TodayTotal decimal.Decimal
	WeekTotal  decimal.Decimal
	MonthTotal decimal.Decimal

	IncomeTotal  decimal.Decimal
	ExpenseTotal decimal.Decimal
	Balance      decimal.Decimal

	TodayByCategory map[string]decimal.Decimal

	MonthProgress float64
	WeekProgress  float64
	HealthMonth   float64
	HealthWeek    float64
	StatusMonth   string
	StatusWeek    string
}

type TotalsService struct {
	policy PacePolicy
}

func NewTotalsService(policy PacePolicy) *TotalsService {
	if policy == (PacePolicy{}) {
		policy = DefaultPacePolicy
	}
	return &TotalsService{policy: policy}
}

// UserLocation maps a profile locale to its reporting timezone. Bucketing in
// the wrong timezone shifts late-night spends across day boundaries, so this
// never silently changes.
func UserLocation(profile *models.UserProfile) *time.Location {
	name := "Europe/London"
	if profile != nil && profile.LocaleMode == models.LocaleBR {
		name = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Compute derives all aggregates in a single pass over the ledger.
// Error rows are excluded everywhere; Adjustment and Onboarding rows count
// in lifetime income/expense (and therefore in the balance) but never in day,
// week or month spend buckets. Rows without a timestamp count in lifetime
// totals only.
func (s *TotalsService) Compute(log []models.Transaction, profile *models.UserProfile, now time.Time) Totals {
	loc := UserLocation(profile)
	localNow := now.In(loc)
	year, month, day := localNow.Date()
	weekStart := startOfWeek(localNow)

	t := Totals{TodayByCategory: make(map[string]decimal.Decimal)}

	for i := range log {
		tx := &log[i]
		if tx.Type == models.TxError {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)

		switch tx.Type {
		case models.TxIncome:
			t.IncomeTotal = t.IncomeTotal.Add(amount)
		case models.TxExpense:
			t.ExpenseTotal = t.ExpenseTotal.Add(amount)
		}

		if !tx.CountsTowardSpend() || tx.CreatedAt.IsZero() {
			continue
		}
		local := tx.CreatedAt.In(loc)
		ty, tm, td := local.Date()

		if ty == year && tm == month {
			t.MonthTotal = t.MonthTotal.Add(amount)
			if td == day {
				t.TodayTotal = t.TodayTotal.Add(amount)
				t.TodayByCategory[tx.Category] = t.TodayByCategory[tx.Category].Add(amount)
			}
		}
		if !local.Before(weekStart) && !local.After(localNow) {
			t.WeekTotal = t.WeekTotal.Add(amount)
		}
	}

	t.Balance = t.IncomeTotal.Sub(t.ExpenseTotal)

	t.MonthProgress = monthProgress(localNow)
	t.WeekProgress = weekProgress(localNow)

	monthlyIncome := 0.0
	weeklyIncome := 0.0
	if profile != nil {
		monthlyIncome = profile.MonthlyIncome
		weeklyIncome = profile.WeeklyIncome
		if weeklyIncome == 0 && monthlyIncome > 0 {
			weeklyIncome = monthlyIncome * 12 / 52
		}
	}

	monthSpend, _ := t.MonthTotal.Float64()
	weekSpend, _ := t.WeekTotal.Float64()
	t.HealthMonth = healthRatio(monthSpend, monthlyIncome*t.MonthProgress)
	t.HealthWeek = healthRatio(weekSpend, weeklyIncome*t.WeekProgress)
	t.StatusMonth = s.statusFor(t.HealthMonth)
	t.StatusWeek = s.statusFor(t.HealthWeek)

	return t
}

// healthRatio is actual spend over expected spend so far; 0 when nothing was
// expected yet.
func healthRatio(actual, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return actual / expected
}

func (s *TotalsService) statusFor(ratio float64) string {
	switch {
	case ratio <= s.policy.Excellent:
		return PaceExcellent
	case ratio <= s.policy.Normal:
		return PaceNormal
	case ratio <= s.policy.Attention:
		return PaceAttention
	default:
		return PaceRisk
	}
}

// startOfWeek returns Monday 00:00 in the instant's location.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -(weekday - 1))
}

func monthProgress(t time.Time) float64 {
	daysInMonth := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	elapsed := float64(t.Day()-1) + dayFraction(t)
	return elapsed / float64(daysInMonth)
}

func weekProgress(t time.Time) float64 {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	elapsed := float64(weekday-1) + dayFraction(t)
	return elapsed / 7
}

func dayFraction(t time.Time) float64 {
	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return float64(seconds) / 86400
}
