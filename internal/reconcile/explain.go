// Package reconcile holds the deterministic parts of the bank reconciliation
// review workflow: the match explainer, the tenant mismatch flag, session
// lifecycle guards, finalize planning and review-list selection.
//
// Nothing here talks to the database or the remote matcher.
package reconcile

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"propdesk-backend/internal/domain"
)

// CurrencySymbol prefixes amounts in explanations.
const CurrencySymbol = "₹"

// Result classifies a single check.
type Result string

const (
	ResultPass          Result = "pass"
	ResultBorderline    Result = "borderline"
	ResultFail          Result = "fail"
	ResultNotApplicable Result = "not_applicable"
)

// Symbol returns the glyph shown next to a check.
func (r Result) Symbol() string {
	switch r {
	case ResultPass:
		return "✓"
	case ResultBorderline:
		return "⚠"
	case ResultFail:
		return "✗"
	default:
		return "○"
	}
}

// Check is one line of the breakdown.
type Check struct {
	Name    string `json:"name"`
	Result  Result `json:"result"`
	Partial bool   `json:"partial,omitempty"`
	Detail  string `json:"detail"`
}

func (c Check) String() string {
	return fmt.Sprintf("%s %s: %s", c.Result.Symbol(), c.Name, c.Detail)
}

// Tier buckets the remote confidence score.
type Tier string

const (
	TierHigh    Tier = "high"
	TierGood    Tier = "good"
	TierPartial Tier = "partial"
	TierLow     Tier = "low"
)

// Explanation is the friendly verdict plus the deterministic breakdown.
// Summary comes from the remote confidence score alone and may disagree with
// the checks.
type Explanation struct {
	Tier    Tier    `json:"tier"`
	Summary string  `json:"summary"`
	Checks  []Check `json:"checks"`
}

// Lines renders the breakdown one check per line.
func (e Explanation) Lines() []string {
	out := make([]string, 0, len(e.Checks))
	for _, c := range e.Checks {
		out = append(out, c.String())
	}
	return out
}

// MatchInput is everything the explainer looks at.
type MatchInput struct {
	PaymentAmount    decimal.Decimal
	PaymentDate      time.Time
	PaymentReference string
	TenantName       string
	Confidence       int
	Bank             *domain.BankTransaction
}

// InputFromView extracts the explainer input from a joined reconciliation.
func InputFromView(v domain.ReconciliationView) MatchInput {
	return MatchInput{
		PaymentAmount:    v.Payment.Amount,
		PaymentDate:      v.Payment.PaymentDate,
		PaymentReference: v.Payment.Reference,
		TenantName:       v.Tenant.MatchName(),
		Confidence:       v.ConfidenceScore,
		Bank:             v.BankTransaction,
	}
}

// Explain builds the explanation for a payment and its candidate bank
// transaction. Without a bank transaction only the summary is produced.
func Explain(in MatchInput) Explanation {
	tier, summary := SummarizeConfidence(in.Confidence)
	exp := Explanation{Tier: tier, Summary: summary, Checks: []Check{}}
	if in.Bank == nil {
		return exp
	}
	exp.Checks = append(exp.Checks,
		CheckAmount(in.PaymentAmount, in.Bank.Amount),
		CheckDate(in.PaymentDate, in.Bank.TransactionDate),
		CheckReference(in.PaymentReference, in.Bank.ReferenceNumber, in.Bank.Description),
		CheckTenantName(in.TenantName, in.Bank.Description),
	)
	return exp
}

// SummarizeConfidence maps a 0-100 score to its tier and headline.
func SummarizeConfidence(score int) (Tier, string) {
	switch {
	case score >= 90:
		return TierHigh, "High confidence match"
	case score >= 75:
		return TierGood, "Good match"
	case score >= 50:
		return TierPartial, "Partial match, review recommended"
	default:
		return TierLow, "Low confidence, verify manually"
	}
}

var (
	one = decimal.NewFromInt(1)
	ten = decimal.NewFromInt(10)
)

// CheckAmount compares the payment and bank amounts.
func CheckAmount(payment, bank decimal.Decimal) Check {
	diff := payment.Sub(bank).Abs()
	c := Check{Name: "Amount"}
	switch {
	case diff.IsZero():
		c.Result, c.Detail = ResultPass, "Exact amount match"
	case diff.LessThanOrEqual(one):
		c.Result, c.Detail = ResultPass, fmt.Sprintf("Within %s%s", CurrencySymbol, diff.StringFixed(2))
	case diff.LessThanOrEqual(ten):
		c.Result, c.Detail = ResultBorderline, fmt.Sprintf("Differs by %s%s", CurrencySymbol, diff.StringFixed(2))
	default:
		c.Result, c.Detail = ResultFail, fmt.Sprintf("Differs by %s%s", CurrencySymbol, diff.StringFixed(2))
	}
	return c
}

// DaysApart returns the absolute number of whole calendar days between a and b.
func DaysApart(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// CheckDate compares the payment date with the bank posting date.
func CheckDate(payment, bank time.Time) Check {
	days := DaysApart(payment, bank)
	c := Check{Name: "Date"}
	switch {
	case days == 0:
		c.Result, c.Detail = ResultPass, "Same day"
	case days <= 2:
		c.Result, c.Detail = ResultPass, fmt.Sprintf("%d %s apart", days, plural(days, "day", "days"))
	case days <= 5:
		c.Result, c.Detail = ResultBorderline, fmt.Sprintf("%d days apart", days)
	case days <= 7:
		c.Result, c.Detail = ResultBorderline, fmt.Sprintf("%d days apart, edge of tolerance", days)
	default:
		c.Result, c.Detail = ResultFail, fmt.Sprintf("%d days apart, outside tolerance", days)
	}
	return c
}

// CheckReference looks for the payment reference in the bank record.
func CheckReference(paymentRef, bankRef, bankDescription string) Check {
	c := Check{Name: "Reference"}
	ref := strings.ToLower(strings.TrimSpace(paymentRef))
	if ref == "" {
		c.Result, c.Detail = ResultNotApplicable, "No payment reference"
		return c
	}
	bRef := strings.ToLower(strings.TrimSpace(bankRef))
	switch {
	case ref == bRef:
		c.Result, c.Detail = ResultPass, "Reference matches exactly"
	case strings.Contains(bRef, ref) || strings.Contains(strings.ToLower(bankDescription), ref):
		c.Result, c.Partial, c.Detail = ResultPass, true, "Reference found in bank record"
	default:
		c.Result, c.Detail = ResultFail, "Reference not found"
	}
	return c
}

// CheckTenantName looks for the tenant's name in the bank description.
func CheckTenantName(tenantName, bankDescription string) Check {
	c := Check{Name: "Tenant"}
	name := strings.ToLower(strings.TrimSpace(tenantName))
	desc := strings.ToLower(bankDescription)
	if name != "" && strings.Contains(desc, name) {
		c.Result, c.Detail = ResultPass, "Full name match"
		return c
	}
	for _, token := range nameTokens(name) {
		if strings.Contains(desc, token) {
			c.Result, c.Partial, c.Detail = ResultPass, true, fmt.Sprintf("Partial name match (%s)", token)
			return c
		}
	}
	c.Result, c.Detail = ResultBorderline, "Name not found"
	return c
}

// nameTokens returns the lower-cased whitespace tokens longer than two characters.
func nameTokens(name string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(name)) {
		if utf8.RuneCountInString(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return singular
	}
	return many
}
