package models

// Step is the single outstanding onboarding question, derived purely from
// profile state. The string form crosses the LLM boundary; nothing else does.
type Step int

const (
	StepIncomeType Step = iota
	StepAskHourlyRate
	StepAskWeeklyHours
	StepAskWeeklyIncome
	StepAskMonthlyIncome
	StepInitialBalance
	StepActive
)

var stepNames = map[Step]string{
	StepIncomeType:       "INCOME_TYPE",
	StepAskHourlyRate:    "ASK_HOURLY_RATE",
	StepAskWeeklyHours:   "ASK_WEEKLY_HOURS",
	StepAskWeeklyIncome:  "ASK_WEEKLY_INCOME",
	StepAskMonthlyIncome: "ASK_MONTHLY_INCOME",
	StepInitialBalance:   "INITIAL_BALANCE",
	StepActive:           "ACTIVE",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "ACTIVE"
}
