package domain

import (
	"github.com/shopspring/decimal"
)

// ValidationCode identifies a specific structural failure of a draft entry.
type ValidationCode string

const (
	CodeMissingDate        ValidationCode = "MISSING_DATE"
	CodeMissingDescription ValidationCode = "MISSING_DESCRIPTION"
	CodeTooFewLines        ValidationCode = "TOO_FEW_LINES"
	CodeUnknownAccount     ValidationCode = "UNKNOWN_ACCOUNT"
	CodeInactiveAccount    ValidationCode = "INACTIVE_ACCOUNT"
	CodeAmbiguousLine      ValidationCode = "AMBIGUOUS_LINE"
	CodeEmptyLine          ValidationCode = "EMPTY_LINE"
	CodeNegativeAmount     ValidationCode = "NEGATIVE_AMOUNT"
	CodeUnbalanced         ValidationCode = "UNBALANCED"
	CodePeriodClosed       ValidationCode = "PERIOD_CLOSED"
)

// ValidationIssue is a single validation failure on a draft entry.
type ValidationIssue struct {
	Code      ValidationCode  `json:"code"`
	Message   string          `json:"message"`
	AccountID string          `json:"accountID,omitempty"` // Set for account-level issues
	Delta     decimal.Decimal `json:"delta,omitempty"`     // Signed debits-credits difference for UNBALANCED
}

// ValidationResult is the structured outcome of validating a draft entry.
// Validation failures are reported here, never as errors past the validator
// boundary; an error return is reserved for lookup failures.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Add appends an issue and marks the result invalid.
func (r *ValidationResult) Add(issue ValidationIssue) {
	r.Valid = false
	r.Issues = append(r.Issues, issue)
}

// Has reports whether the result contains an issue with the given code.
func (r *ValidationResult) Has(code ValidationCode) bool {
	for _, issue := range r.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
