package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"centavo/internal/models"
)

// weeksPerMonth is the single canonical weekly→monthly conversion (52/12).
// Both the hourly and the weekly income paths use it, so a later income-type
// change never leaves two irreconcilable derivations behind.
const weeksPerMonth = 52.0 / 12.0

// DispatchService applies an extracted intent to persistent state. Every
// mutation is deterministic and happens here; the LLM only proposes.
type DispatchService struct {
	profiles            ProfileStore
	ledger              LedgerStore
	totals              *TotalsService
	lowBalanceThreshold decimal.Decimal
	log                 *zap.Logger
}

func NewDispatchService(profiles ProfileStore, ledger LedgerStore, totals *TotalsService, lowBalanceThreshold float64, log *zap.Logger) *DispatchService {
	return &DispatchService{
		profiles:            profiles,
		ledger:              ledger,
		totals:              totals,
		lowBalanceThreshold: decimal.NewFromFloat(lowBalanceThreshold),
		log:                 log,
	}
}

// Dispatch mutates profile and ledger per the intent kind and returns the
// reply to send plus an optional one-time low-balance alert. The profile is
// persisted before returning.
func (s *DispatchService) Dispatch(ctx context.Context, intent *models.Intent, profile *models.UserProfile, now time.Time) (reply, alert string, err error) {
	switch intent.Kind {
	case models.IntentSetIncomeType:
		profile.IncomeType = intent.IncomeType

	case models.IntentSetHourlyRate:
		profile.HourlyRate = intent.HourlyRate

	case models.IntentSetWeeklyHours:
		profile.WeeklyHours = intent.WeeklyHours
		profile.MonthlyIncome = profile.HourlyRate * profile.WeeklyHours * weeksPerMonth

	case models.IntentSetWeeklyIncome:
		profile.WeeklyIncome = intent.WeeklyIncome
		profile.MonthlyIncome = intent.WeeklyIncome * weeksPerMonth
		profile.IncomeType = models.IncomeWeekly

	case models.IntentSetMonthlyIncome:
		profile.MonthlyIncome = intent.MonthlyIncome
		profile.IncomeType = models.IncomeMonthly

	case models.IntentSetCurrentBalance:
		if err := s.syncBalance(ctx, profile, intent.Amount, now); err != nil {
			return "", "", err
		}

	case models.IntentAddExpense, models.IntentMultipleExpenses:
		if err := s.addExpenses(ctx, profile, intent, now); err != nil {
			return "", "", err
		}
		alert, err = s.lowBalanceAlert(ctx, profile, now)
		if err != nil {
			return "", "", err
		}

	case models.IntentRemoveExpense:
		if err := s.ledger.DeleteLatest(ctx, profile.Phone); err != nil {
			return "", "", err
		}

	case models.IntentAddBalance:
		tx := &models.Transaction{
			Amount:    intent.Amount,
			Type:      models.TxIncome,
			Category:  intent.Category,
			Intent:    string(intent.Kind),
			CreatedAt: now,
		}
		if err := s.ledger.Append(ctx, profile.Phone, tx); err != nil {
			return "", "", err
		}

	case models.IntentCorrection:
		if intent.MonthlyIncome > 0 {
			profile.MonthlyIncome = intent.MonthlyIncome
		}
		if intent.PayDay > 0 {
			profile.PayDay = intent.PayDay
		}

	case models.IntentNoAction:
		// No mutation; pass the collaborator's re-prompt through verbatim.
		return intent.ResponseMessage, "", nil

	default:
		return intent.ResponseMessage, "", nil
	}

	profile.LastAction = string(intent.Kind)
	profile.LastInteractionAt = now
	profile.UpdatedAt = now
	if err := s.profiles.Save(ctx, profile); err != nil {
		return "", "", err
	}
	return intent.ResponseMessage, alert, nil
}

// syncBalance records a user-stated starting balance: one income row equal to
// the known monthly income reference, then one Adjustment row for the signed
// difference, so income minus expense reconciles to exactly the stated figure.
func (s *DispatchService) syncBalance(ctx context.Context, profile *models.UserProfile, stated float64, now time.Time) error {
	reference := decimal.NewFromFloat(profile.MonthlyIncome)
	balance := decimal.NewFromFloat(stated)

	seed := &models.Transaction{
		Amount:      profile.MonthlyIncome,
		Type:        models.TxIncome,
		Category:    models.CategoryOnboarding,
		Description: "starting income reference",
		Intent:      string(models.IntentSetCurrentBalance),
		CreatedAt:   now,
	}
	if err := s.ledger.Append(ctx, profile.Phone, seed); err != nil {
		return err
	}

	diff := reference.Sub(balance)
	if !diff.IsZero() {
		adj := &models.Transaction{
			Category:    models.CategoryAdjustment,
			Description: "starting balance adjustment",
			Intent:      string(models.IntentSetCurrentBalance),
			CreatedAt:   now,
		}
		if diff.IsPositive() {
			adj.Type = models.TxExpense
			adj.Amount, _ = diff.Float64()
		} else {
			adj.Type = models.TxIncome
			adj.Amount, _ = diff.Neg().Float64()
		}
		if err := s.ledger.Append(ctx, profile.Phone, adj); err != nil {
			return err
		}
	}

	profile.OnboardingComplete = true
	profile.HasSyncedBalance = true
	return nil
}

func (s *DispatchService) addExpenses(ctx context.Context, profile *models.UserProfile, intent *models.Intent, now time.Time) error {
	items := intent.Expenses
	if len(items) == 0 && intent.Amount > 0 {
		// Fallback: a single expense from the top-level fields.
		items = []models.ExpenseItem{{
			Amount:      intent.Amount,
			Category:    intent.Category,
			Description: intent.Description,
		}}
	}
	for _, item := range items {
		tx := &models.Transaction{
			Amount:      item.Amount,
			Type:        models.TxExpense,
			Category:    item.Category,
			Description: item.Description,
			Intent:      string(intent.Kind),
			CreatedAt:   now,
		}
		if err := s.ledger.Append(ctx, profile.Phone, tx); err != nil {
			return err
		}
	}

	profile.LastExpenseAt = now
	profile.InactivityReminderSent = false
	return nil
}

// lowBalanceAlert recomputes the balance after an expense and returns a
// one-time alert when it dropped below the threshold. The sent date is
// recorded so the alert fires at most once per calendar day.
func (s *DispatchService) lowBalanceAlert(ctx context.Context, profile *models.UserProfile, now time.Time) (string, error) {
	if !profile.Subscribed(now) {
		return "", nil
	}
	today := now.In(UserLocation(profile)).Format("2006-01-02")
	if profile.LowBalanceAlertDate == today {
		return "", nil
	}

	log, err := s.ledger.List(ctx, profile.Phone)
	if err != nil {
		return "", err
	}
	totals := s.totals.Compute(log, profile, now)
	if totals.Balance.GreaterThanOrEqual(s.lowBalanceThreshold) {
		return "", nil
	}

	profile.LowBalanceAlertDate = today
	s.log.Info("low balance alert",
		zap.String("phone", profile.Phone),
		zap.String("balance", totals.Balance.StringFixed(2)))
	return msgLowBalance(profile.Locale(), fmt.Sprintf("%s %s", currencySymbol(profile.Locale()), totals.Balance.StringFixed(2))), nil
}

func currencySymbol(locale string) string {
	if isBR(locale) {
		return "R$"
	}
	return "£"
}
