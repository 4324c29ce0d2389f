package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"centavo/internal/models"
)

const openaiURL = "https://api.openai.com/v1/chat/completions"

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// wireIntent tolerates the loose typing the model produces: amounts may come
// back as numbers or strings, unknown kinds collapse to NO_ACTION.
type wireIntent struct {
	Kind            string           `json:"kind"`
	Amount          json.RawMessage  `json:"amount"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	IncomeType      string           `json:"income_type"`
	HourlyRate      json.RawMessage  `json:"hourly_rate"`
	WeeklyHours     json.RawMessage  `json:"weekly_hours"`
	WeeklyIncome    json.RawMessage  `json:"weekly_income"`
	MonthlyIncome   json.RawMessage  `json:"monthly_income"`
	PayDay          int              `json:"pay_day"`
	Expenses        []wireExpense    `json:"expenses"`
	ResponseMessage string           `json:"response_message"`
}

type wireExpense struct {
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Extractor calls the chat-completions API in JSON mode and decodes the
// result into the closed intent union.
type Extractor struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewExtractor(apiKey, model string) *Extractor {
	return &Extractor{
		apiKey:  apiKey,
		model:   model,
		baseURL: openaiURL,
		// The caller bounds each request with its own context deadline; this
		// is only a backstop against leaked requests.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Extractor) ExtractIntent(ctx context.Context, text string, ec models.ExtractionContext) (*models.Intent, error) {
	reqBody := chatRequest{
		Model:          e.model,
		MaxTokens:      500,
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(ec)},
			{Role: "user", Content: text},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("openai: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}

	var wire wireIntent
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &wire); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return wire.toIntent(), nil
}

func (w *wireIntent) toIntent() *models.Intent {
	intent := &models.Intent{
		Kind:            models.KnownIntentKind(w.Kind),
		Amount:          coerceAmount(w.Amount),
		Category:        w.Category,
		Description:     w.Description,
		IncomeType:      w.IncomeType,
		HourlyRate:      coerceAmount(w.HourlyRate),
		WeeklyHours:     coerceAmount(w.WeeklyHours),
		WeeklyIncome:    coerceAmount(w.WeeklyIncome),
		MonthlyIncome:   coerceAmount(w.MonthlyIncome),
		PayDay:          w.PayDay,
		ResponseMessage: w.ResponseMessage,
	}
	for _, e := range w.Expenses {
		intent.Expenses = append(intent.Expenses, models.ExpenseItem{
			Amount:      coerceAmount(e.Amount),
			Category:    e.Category,
			Description: e.Description,
		})
	}
	return intent
}

// coerceAmount parses a number that may arrive as a JSON number, a quoted
// string, or garbage. Malformed values become 0, never an error.
func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

func systemPrompt(ec models.ExtractionContext) string {
	return fmt.Sprintf(`You are the intent extractor for a personal-finance chat assistant.
Reply with a single JSON object: {"kind", "amount", "category", "description",
"income_type", "hourly_rate", "weekly_hours", "weekly_income", "monthly_income",
"pay_day", "expenses": [{"amount","category","description"}], "response_message"}.
Valid kinds: SET_INCOME_TYPE, SET_HOURLY_RATE, SET_WEEKLY_HOURS, SET_WEEKLY_INCOME,
SET_MONTHLY_INCOME, SET_CURRENT_BALANCE, ADD_EXPENSE, MULTIPLE_EXPENSES,
REMOVE_EXPENSE, ADD_BALANCE, CORRECTION, NO_ACTION.
Current objective step: %s. Only extract what this step permits; for anything
else use NO_ACTION with a helpful response_message.
User locale: %s. Write response_message in the user's language.
Context: onboarding_complete=%t income_type=%q monthly_income=%.2f balance=%.2f
spent_today=%.2f spent_month=%.2f month_pace=%s.`,
		ec.Step.String(), ec.Locale, ec.OnboardingComplete, ec.IncomeType,
		ec.MonthlyIncome, ec.Balance, ec.TodayTotal, ec.MonthTotal, ec.StatusMonth)
}
