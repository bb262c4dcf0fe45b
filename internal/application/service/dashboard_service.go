package service

import (
	"context"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Summary is the owner's headline figures plus the data version the
// figures were computed at, so a client can tell stale numbers apart.
type Summary struct {
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	OutstandingDebt decimal.Decimal `json:"outstanding_debt"`
	DataVersion     int64           `json:"data_version"`
	LastSyncTime    time.Time       `json:"last_sync_time"`
}

// DashboardService aggregates the owner's figures.
type DashboardService struct {
	sales      repository.SaleRepository
	expenses   repository.ExpenseRepository
	debts      *DebtService
	reconciler *Reconciler
	log        *logrus.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(sales repository.SaleRepository, expenses repository.ExpenseRepository, debts *DebtService, reconciler *Reconciler, log *logrus.Logger) *DashboardService {
	return &DashboardService{
		sales:      sales,
		expenses:   expenses,
		debts:      debts,
		reconciler: reconciler,
		log:        log,
	}
}

// GetSummary computes totals over the optional date range. Aggregates are
// remote-store queries; when they fail the figures come back zero with
// the error, the caller decides whether cached per-record data suffices.
func (s *DashboardService) GetSummary(ctx context.Context, sess *session.Session, dateRange *repository.DateRange) (*Summary, error) {
	totalSales, totalProfit, err := s.sales.Totals(ctx, sess.UserID, dateRange)
	if err != nil {
		return nil, err
	}
	totalExpenses, err := s.expenses.Total(ctx, sess.UserID, dateRange)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.debts.Outstanding(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalSales:      totalSales,
		TotalProfit:     totalProfit,
		TotalExpenses:   totalExpenses,
		OutstandingDebt: outstanding,
		DataVersion:     s.reconciler.Current(sess.UserID),
		LastSyncTime:    s.reconciler.LastSync(sess.UserID),
	}, nil
}
