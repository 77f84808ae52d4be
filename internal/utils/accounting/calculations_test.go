package accounting

import (
	"testing"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(accountID string, debit, credit float64) domain.JournalLine {
	return domain.JournalLine{
		LineID:       accountID + "-line",
		AccountID:    accountID,
		DebitAmount:  decimal.NewFromFloat(debit),
		CreditAmount: decimal.NewFromFloat(credit),
	}
}

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name        string
		line        domain.JournalLine
		accountType domain.AccountType
		want        decimal.Decimal
	}{
		{
			name:        "debit to asset increases balance",
			line:        line("cash", 100, 0),
			accountType: domain.Asset,
			want:        decimal.NewFromInt(100),
		},
		{
			name:        "credit to asset decreases balance",
			line:        line("cash", 0, 40),
			accountType: domain.Asset,
			want:        decimal.NewFromInt(-40),
		},
		{
			name:        "debit to expense increases balance",
			line:        line("rent", 75, 0),
			accountType: domain.Expense,
			want:        decimal.NewFromInt(75),
		},
		{
			name:        "credit to liability increases balance",
			line:        line("loan", 0, 500),
			accountType: domain.Liability,
			want:        decimal.NewFromInt(500),
		},
		{
			name:        "debit to liability decreases balance",
			line:        line("loan", 120, 0),
			accountType: domain.Liability,
			want:        decimal.NewFromInt(-120),
		},
		{
			name:        "credit to revenue increases balance",
			line:        line("sales", 0, 300),
			accountType: domain.Revenue,
			want:        decimal.NewFromInt(300),
		},
		{
			name:        "credit to equity increases balance",
			line:        line("capital", 0, 1000),
			accountType: domain.Equity,
			want:        decimal.NewFromInt(1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedAmount(tt.line, tt.accountType)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestSignedAmount_UnknownType(t *testing.T) {
	_, err := SignedAmount(line("x", 10, 0), domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestEntryDelta(t *testing.T) {
	balanced := []domain.JournalLine{
		line("cash", 500, 0),
		line("sales", 0, 500),
	}
	assert.True(t, EntryDelta(balanced).IsZero())

	unbalanced := []domain.JournalLine{
		line("cash", 800, 0),
		line("sales", 0, 700),
	}
	assert.True(t, EntryDelta(unbalanced).Equal(decimal.NewFromInt(100)))
}

func TestIsBalanced_Tolerance(t *testing.T) {
	// A one-cent rounding difference is still postable.
	withinTolerance := []domain.JournalLine{
		line("cash", 100.00, 0),
		line("sales", 0, 99.99),
	}
	assert.True(t, IsBalanced(withinTolerance))

	beyondTolerance := []domain.JournalLine{
		line("cash", 100.00, 0),
		line("sales", 0, 99.98),
	}
	assert.False(t, IsBalanced(beyondTolerance))
}

func TestEntryAmount(t *testing.T) {
	lines := []domain.JournalLine{
		line("cash", 300, 0),
		line("fees", 200, 0),
		line("sales", 0, 500),
	}
	assert.True(t, EntryAmount(lines).Equal(decimal.NewFromInt(500)))
}

func TestBalanceChanges(t *testing.T) {
	lines := []domain.JournalLine{
		line("cash", 500, 0),
		line("sales", 0, 500),
	}
	types := map[string]domain.AccountType{
		"cash":  domain.Asset,
		"sales": domain.Revenue,
	}

	changes, err := BalanceChanges(lines, types)
	require.NoError(t, err)
	// Both accounts increase: the asset is debited, the revenue is credited.
	assert.True(t, changes["cash"].Equal(decimal.NewFromInt(500)))
	assert.True(t, changes["sales"].Equal(decimal.NewFromInt(500)))
}

func TestBalanceChanges_AggregatesSameAccount(t *testing.T) {
	lines := []domain.JournalLine{
		line("cash", 300, 0),
		line("cash", 0, 100),
		line("sales", 0, 200),
	}
	types := map[string]domain.AccountType{
		"cash":  domain.Asset,
		"sales": domain.Revenue,
	}

	changes, err := BalanceChanges(lines, types)
	require.NoError(t, err)
	assert.True(t, changes["cash"].Equal(decimal.NewFromInt(200)))
	assert.True(t, changes["sales"].Equal(decimal.NewFromInt(200)))
}

func TestBalanceChanges_MissingAccountType(t *testing.T) {
	lines := []domain.JournalLine{line("ghost", 10, 0)}
	_, err := BalanceChanges(lines, map[string]domain.AccountType{})
	assert.Error(t, err)
}

// Maintaining a balance by applying per-entry deltas must land on the same
// figure as re-aggregating every posted line from scratch, for every account
// type. This is the equivalence between the cached account balance and an
// as-of recomputation over the journal.
func TestBalanceChanges_ReplayMatchesFullAggregation(t *testing.T) {
	types := map[string]domain.AccountType{
		"cash":  domain.Asset,
		"loan":  domain.Liability,
		"sales": domain.Revenue,
		"rent":  domain.Expense,
	}
	entries := [][]domain.JournalLine{
		{line("cash", 5000, 0), line("loan", 0, 5000)},
		{line("cash", 1000, 0), line("sales", 0, 1000)},
		{line("rent", 800, 0), line("cash", 0, 800)},
		{line("loan", 500, 0), line("cash", 0, 500)},
		// Reversal of the cash sale: columns swapped.
		{line("cash", 0, 1000), line("sales", 1000, 0)},
	}

	// Incremental path: apply each entry's deltas to a running balance.
	maintained := map[string]decimal.Decimal{}
	var posted []domain.JournalLine
	for _, lines := range entries {
		changes, err := BalanceChanges(lines, types)
		require.NoError(t, err)
		for accountID, delta := range changes {
			maintained[accountID] = maintained[accountID].Add(delta)
		}
		posted = append(posted, lines...)
	}

	// Aggregation path: sum the signed amount of every line ever posted.
	aggregated := map[string]decimal.Decimal{}
	for _, l := range posted {
		signed, err := SignedAmount(l, types[l.AccountID])
		require.NoError(t, err)
		aggregated[l.AccountID] = aggregated[l.AccountID].Add(signed)
	}

	for accountID := range types {
		assert.True(t, maintained[accountID].Equal(aggregated[accountID]),
			"account %s: maintained %s, aggregated %s", accountID, maintained[accountID], aggregated[accountID])
	}
	// Spot-check the expected figures too.
	assert.True(t, maintained["cash"].Equal(decimal.NewFromInt(3700)))
	assert.True(t, maintained["loan"].Equal(decimal.NewFromInt(4500)))
	assert.True(t, maintained["sales"].Equal(decimal.Zero))
	assert.True(t, maintained["rent"].Equal(decimal.NewFromInt(800)))
}
