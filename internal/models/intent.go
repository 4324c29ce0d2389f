package models

// IntentKind is the closed set of actions the extraction collaborator may
// request. The dispatcher owns every mutation; the LLM never writes state.
type IntentKind string

const (
	IntentSetIncomeType     IntentKind = "SET_INCOME_TYPE"
	IntentSetHourlyRate     IntentKind = "SET_HOURLY_RATE"
	IntentSetWeeklyHours    IntentKind = "SET_WEEKLY_HOURS"
	IntentSetWeeklyIncome   IntentKind = "SET_WEEKLY_INCOME"
	IntentSetMonthlyIncome  IntentKind = "SET_MONTHLY_INCOME"
	IntentSetCurrentBalance IntentKind = "SET_CURRENT_BALANCE"
	IntentAddExpense        IntentKind = "ADD_EXPENSE"
	IntentMultipleExpenses  IntentKind = "MULTIPLE_EXPENSES"
	IntentRemoveExpense     IntentKind = "REMOVE_EXPENSE"
	IntentAddBalance        IntentKind = "ADD_BALANCE"
	IntentCorrection        IntentKind = "CORRECTION"
	IntentNoAction          IntentKind = "NO_ACTION"
)

// KnownIntentKind maps a wire string to an IntentKind, falling back to
// NO_ACTION for anything the union does not carry.
func KnownIntentKind(s string) IntentKind {
	switch IntentKind(s) {
	case IntentSetIncomeType, IntentSetHourlyRate, IntentSetWeeklyHours,
		IntentSetWeeklyIncome, IntentSetMonthlyIncome, IntentSetCurrentBalance,
		IntentAddExpense, IntentMultipleExpenses, IntentRemoveExpense,
		IntentAddBalance, IntentCorrection, IntentNoAction:
		return IntentKind(s)
	}
	return IntentNoAction
}

// ExpenseItem is one extracted expense in a MULTIPLE_EXPENSES intent.
type ExpenseItem struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// Intent is the tagged value produced by the extraction collaborator.
type Intent struct {
	Kind            IntentKind    `json:"kind"`
	Amount          float64       `json:"amount,omitempty"`
	Category        string        `json:"category,omitempty"`
	Description     string        `json:"description,omitempty"`
	IncomeType      string        `json:"income_type,omitempty"`
	HourlyRate      float64       `json:"hourly_rate,omitempty"`
	WeeklyHours     float64       `json:"weekly_hours,omitempty"`
	WeeklyIncome    float64       `json:"weekly_income,omitempty"`
	MonthlyIncome   float64       `json:"monthly_income,omitempty"`
	PayDay          int           `json:"pay_day,omitempty"`
	Expenses        []ExpenseItem `json:"expenses,omitempty"`
	ResponseMessage string        `json:"response_message,omitempty"`
}

// ExtractionContext is the snapshot handed to the LLM collaborator alongside
// the raw message. The resolved step is the active objective constraining what
// the stateless extractor may return.
type ExtractionContext struct {
	Step               Step
	Locale             string
	OnboardingComplete bool
	IncomeType         string
	MonthlyIncome      float64
	Balance            float64
	TodayTotal         float64
	MonthTotal         float64
	StatusMonth        string
}
