package services

import "centavo/internal/models"

// ResolveStep derives the single outstanding onboarding question from profile
// state. It is total and deterministic: exactly one step comes back for any
// profile, in the documented priority order. The resolver is the authority on
// conversation position; the LLM is stateless per call and only receives the
// result as its objective.
func ResolveStep(profile *models.UserProfile) models.Step {
	if profile == nil {
		return models.StepIncomeType
	}
	if profile.OnboardingComplete {
		return models.StepActive
	}

	switch profile.IncomeType {
	case "":
		return models.StepIncomeType
	case models.IncomeHourly:
		if profile.HourlyRate == 0 {
			return models.StepAskHourlyRate
		}
		if profile.WeeklyHours == 0 {
			return models.StepAskWeeklyHours
		}
	case models.IncomeWeekly:
		if profile.WeeklyIncome == 0 && profile.MonthlyIncome == 0 {
			return models.StepAskWeeklyIncome
		}
	default:
		if profile.MonthlyIncome == 0 {
			return models.StepAskMonthlyIncome
		}
	}

	if !profile.HasSyncedBalance {
		return models.StepInitialBalance
	}
	return models.StepActive
}
