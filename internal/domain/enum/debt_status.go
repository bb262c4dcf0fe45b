package enum

// DebtStatus is derived from paidAmount vs totalAmount and is never set
// directly by callers: paid when paidAmount >= totalAmount, partial when
// 0 < paidAmount < totalAmount, pending when paidAmount == 0.
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "pending"
	DebtStatusPartial DebtStatus = "partial"
	DebtStatusPaid    DebtStatus = "paid"
)

func (s DebtStatus) String() string {
	return string(s)
}

// DeleteStatus marks a debt whose cascade delete has been initiated but
// not yet completed. A pending_delete debt is invisible to normal reads.
type DeleteStatus string

const (
	DeleteStatusActive        DeleteStatus = "active"
	DeleteStatusPendingDelete DeleteStatus = "pending_delete"
)
