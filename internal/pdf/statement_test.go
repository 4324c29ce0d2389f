package pdf

import (
	"bytes"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"almoço", 10, "almoço"},
		{"cartão de crédito", 10, "cartão de…"},
		{"ação", 4, "ação"},
		{"ação social", 6, "ação …"},
	}
	for _, c := range cases {
		got := truncate(c.in, c.max)
		if got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", c.in, c.max, got)
		}
		if n := utf8.RuneCountInString(got); n > c.max {
			t.Errorf("truncate(%q, %d) kept %d runes", c.in, c.max, n)
		}
	}
}

func TestGenerateStatementRendersPDF(t *testing.T) {
	g := NewStatementGenerator()
	data := StatementData{
		Phone: "5511912345678",
		Month: "2026-08",
		Lines: []StatementLine{
			{Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), Type: "expense", Category: "Alimentação", Description: "almoço no cartão", Amount: "R$ 25.00"},
		},
		IncomeTotal:  "R$ 2600.00",
		ExpenseTotal: "R$ 25.00",
		Balance:      "R$ 2575.00",
	}

	out, err := g.GenerateStatement(data)
	if err != nil {
		t.Fatalf("GenerateStatement: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header: %q", out[:min(len(out), 8)])
	}
}
