package handlers

import "testing"

func TestParseExpense(t *testing.T) {
	cases := []struct {
		req  addExpenseRequest
		want string
	}{
		{addExpenseRequest{Month: "2026-03", Amount: 500}, "2026-03"},
		{addExpenseRequest{Month: " 2026-12 ", Amount: 0.5}, "2026-12"},
	}
	for _, c := range cases {
		got, err := parseExpense(c.req)
		if err != nil {
			t.Errorf("parseExpense(%+v) failed: %v", c.req, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseExpense(%+v) = %q, want %q", c.req, got, c.want)
		}
	}
}

func TestParseExpenseRejectsBadInput(t *testing.T) {
	bad := []addExpenseRequest{
		{Month: "2026-03", Amount: 0},
		{Month: "2026-03", Amount: -100},
		{Month: "", Amount: 500},
		{Month: "march", Amount: 500},
		{Month: "03.2026", Amount: 500},
	}
	for _, req := range bad {
		if got, err := parseExpense(req); err == nil {
			t.Errorf("parseExpense(%+v) = %q, want error", req, got)
		}
	}
}
