package entity

import (
	"testing"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDebtRecalculate(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		paid       int64
		wantStatus enum.DebtStatus
		wantBal    int64
	}{
		{"nothing paid", 5000, 0, enum.DebtStatusPending, 5000},
		{"partially paid", 5000, 2000, enum.DebtStatusPartial, 3000},
		{"fully paid", 5000, 5000, enum.DebtStatusPaid, 0},
		{"overpaid floors balance at zero", 5000, 6000, enum.DebtStatusPaid, 0},
		{"zero debt is paid", 0, 0, enum.DebtStatusPaid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Debt{
				TotalAmount: decimal.NewFromInt(tt.total),
				PaidAmount:  decimal.NewFromInt(tt.paid),
			}
			d.Recalculate()
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.True(t, d.Balance().Equal(decimal.NewFromInt(tt.wantBal)),
				"balance = %s, want %d", d.Balance(), tt.wantBal)
		})
	}
}

func TestDebtPaymentSequence(t *testing.T) {
	d := &Debt{
		TotalAmount: decimal.NewFromInt(5000),
		PaidAmount:  decimal.Zero,
	}
	d.Recalculate()
	assert.Equal(t, enum.DebtStatusPending, d.Status)
	assert.True(t, d.Balance().Equal(decimal.NewFromInt(5000)))

	d.PaidAmount = d.PaidAmount.Add(decimal.NewFromInt(2000))
	d.Recalculate()
	assert.Equal(t, enum.DebtStatusPartial, d.Status)
	assert.True(t, d.Balance().Equal(decimal.NewFromInt(3000)))

	d.PaidAmount = d.PaidAmount.Add(decimal.NewFromInt(3000))
	d.Recalculate()
	assert.Equal(t, enum.DebtStatusPaid, d.Status)
	assert.True(t, d.Balance().IsZero())
}

func TestDebtSumItems(t *testing.T) {
	d := &Debt{
		Items: []DebtItem{
			{ItemName: "maize flour", Quantity: 2, Total: decimal.NewFromInt(240)},
			{ItemName: "cooking oil", Quantity: 1, Total: decimal.NewFromInt(410)},
		},
	}
	assert.True(t, d.SumItems().Equal(decimal.NewFromInt(650)))
}

func TestSaleComputeTotals(t *testing.T) {
	s := &Sale{
		Quantity:  3,
		UnitPrice: decimal.NewFromInt(150),
		CostPrice: decimal.NewFromInt(100),
	}
	s.ComputeTotals()
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(450)))
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(150)))
}
