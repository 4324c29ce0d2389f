package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"centavo/internal/logger"
	"centavo/internal/models"
	"centavo/internal/pdf"
	"centavo/internal/services"
	"centavo/internal/utils"
)

type StatementHandler struct {
	profiles  services.ProfileStore
	ledger    services.LedgerStore
	generator pdf.Generator
}

func NewStatementHandler(profiles services.ProfileStore, ledger services.LedgerStore, generator pdf.Generator) *StatementHandler {
	return &StatementHandler{profiles: profiles, ledger: ledger, generator: generator}
}

// Statement renders the user's ledger for one calendar month as PDF.
// month defaults to the current month in the user's timezone.
func (h *StatementHandler) Statement(c *gin.Context) {
	log := logger.Get()

	phone := utils.Digits(c.Param("phone"))
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone"})
		return
	}

	ctx := c.Request.Context()
	profile, err := h.profiles.Get(ctx, phone)
	if err != nil {
		log.Error("[handler][statement] load profile", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	loc := services.UserLocation(profile)
	month := c.Query("month")
	if month == "" {
		month = time.Now().In(loc).Format("2006-01")
	}
	monthStart, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, expected YYYY-MM"})
		return
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	transactions, err := h.ledger.List(ctx, phone)
	if err != nil {
		log.Error("[handler][statement] load ledger", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	symbol := "£"
	if profile.Locale() == models.LocaleBR {
		symbol = "R$"
	}

	income := decimal.Zero
	expense := decimal.Zero
	lines := make([]pdf.StatementLine, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Type == models.TxError {
			continue
		}
		at := tx.CreatedAt.In(loc)
		if at.Before(monthStart) || !at.Before(monthEnd) {
			continue
		}
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type == models.TxIncome {
			income = income.Add(amount)
		} else {
			expense = expense.Add(amount)
		}
		lines = append(lines, pdf.StatementLine{
			Date:        at,
			Type:        tx.Type,
			Category:    tx.Category,
			Description: tx.Description,
			Amount:      fmt.Sprintf("%s%s", symbol, amount.StringFixed(2)),
		})
	}

	data := pdf.StatementData{
		Phone:        phone,
		Month:        month,
		Lines:        lines,
		IncomeTotal:  fmt.Sprintf("%s%s", symbol, income.StringFixed(2)),
		ExpenseTotal: fmt.Sprintf("%s%s", symbol, expense.StringFixed(2)),
		Balance:      fmt.Sprintf("%s%s", symbol, income.Sub(expense).StringFixed(2)),
	}

	out, err := h.generator.GenerateStatement(data)
	if err != nil {
		log.Error("[handler][statement] render", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement-%s.pdf", month))
	c.Data(http.StatusOK, "application/pdf", out)
}
