package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — interface so handlers can be tested without rendering.
type Generator interface {
	GenerateStatement(data StatementData) ([]byte, error)
}

type StatementGenerator struct{}

func NewStatementGenerator() *StatementGenerator {
	return &StatementGenerator{}
}

type StatementLine struct {
	Date        time.Time
	Type        string
	Category    string
	Description string
	Amount      string
}

type StatementData struct {
	Phone        string
	Month        string // "2026-08"
	Lines        []StatementLine
	IncomeTotal  string
	ExpenseTotal string
	Balance      string
}

func (g *StatementGenerator) GenerateStatement(data StatementData) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Monthly statement", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, fmt.Sprintf("Statement %s", data.Month))
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 8, fmt.Sprintf("Account: %s", data.Phone))
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(25, 7, "Date", "1", 0, "", false, 0, "")
	doc.CellFormat(20, 7, "Type", "1", 0, "", false, 0, "")
	doc.CellFormat(40, 7, "Category", "1", 0, "", false, 0, "")
	doc.CellFormat(75, 7, "Description", "1", 0, "", false, 0, "")
	doc.CellFormat(30, 7, "Amount", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, line := range data.Lines {
		doc.CellFormat(25, 6, line.Date.Format("02/01/2006"), "1", 0, "", false, 0, "")
		doc.CellFormat(20, 6, line.Type, "1", 0, "", false, 0, "")
		doc.CellFormat(40, 6, truncate(line.Category, 24), "1", 0, "", false, 0, "")
		doc.CellFormat(75, 6, truncate(line.Description, 48), "1", 0, "", false, 0, "")
		doc.CellFormat(30, 6, line.Amount, "1", 1, "R", false, 0, "")
	}

	doc.Ln(6)
	doc.SetFont("Helvetica", "B", 10)
	doc.Cell(0, 6, fmt.Sprintf("Income: %s", data.IncomeTotal))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Expenses: %s", data.ExpenseTotal))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Balance: %s", data.Balance))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate shortens to max runes; byte slicing would split multibyte
// characters in pt-BR descriptions.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
