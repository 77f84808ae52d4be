package accounting

import (
	"fmt"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest allowed difference between total debits and
// total credits of a postable entry: one unit of the lowest currency subdivision.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// SignedAmount applies the correct sign to a journal line based on account type.
// This is used in both services and repositories to ensure consistent accounting logic.
//
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
//
// The result is the change to the account's running balance, so increases are
// positive for every account type regardless of which column the amount sits in.
func SignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	normal, ok := accountType.NormalBalance()
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	raw := line.DebitAmount.Sub(line.CreditAmount)
	if normal == domain.CreditSide {
		return raw.Neg(), nil
	}
	return raw, nil
}

// EntryDelta returns the signed difference sum(debits) - sum(credits) across lines.
func EntryDelta(lines []domain.JournalLine) decimal.Decimal {
	delta := decimal.Zero
	for _, line := range lines {
		delta = delta.Add(line.DebitAmount).Sub(line.CreditAmount)
	}
	return delta
}

// IsBalanced reports whether the lines balance within BalanceTolerance.
func IsBalanced(lines []domain.JournalLine) bool {
	return EntryDelta(lines).Abs().LessThanOrEqual(BalanceTolerance)
}

// EntryAmount computes the economic value of a balanced entry: the total of its
// debit legs, which equals the total of its credit legs.
func EntryAmount(lines []domain.JournalLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.DebitAmount)
	}
	return total
}

// BalanceChanges aggregates the net signed balance change per account across lines.
func BalanceChanges(lines []domain.JournalLine, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account ID %s", line.AccountID)
		}
		signed, err := SignedAmount(line, accountType)
		if err != nil {
			return nil, fmt.Errorf("error calculating signed amount for line %s: %w", line.LineID, err)
		}
		changes[line.AccountID] = changes[line.AccountID].Add(signed)
	}
	return changes, nil
}
