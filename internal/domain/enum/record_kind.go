package enum

// RecordKind is the closed set of record collections the ledger mirrors.
// It doubles as the audit log's table name so the mutation pipeline can
// treat all six kinds uniformly.
type RecordKind string

const (
	KindProduct     RecordKind = "products"
	KindSale        RecordKind = "sales"
	KindExpense     RecordKind = "expenses"
	KindCustomer    RecordKind = "customers"
	KindDebt        RecordKind = "debts"
	KindDebtPayment RecordKind = "debt_payments"
)

// AllRecordKinds lists every mirrored collection, in cascade-safe order
// (parents before children is not required; the order is only used for
// iteration).
func AllRecordKinds() []RecordKind {
	return []RecordKind{
		KindProduct,
		KindSale,
		KindExpense,
		KindCustomer,
		KindDebt,
		KindDebtPayment,
	}
}

func (k RecordKind) String() string {
	return string(k)
}
