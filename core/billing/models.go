package billing

import (
	"time"

	"github.com/trezcool/wazazi/core"
)

// Payment methods
const (
	MethodCash         = "cash"
	MethodMobileMoney  = "mobile_money"
	MethodBankTransfer = "bank_transfer"
	MethodCheque       = "cheque"
	MethodCard         = "card"
)

// Payment categories
const (
	CategoryAnnualDues = "annual_dues"
	CategoryProject    = "project"
	CategoryEvent      = "event"
	CategoryOther      = "other"
)

var (
	Methods    = []string{MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCheque, MethodCard}
	Categories = []string{CategoryAnnualDues, CategoryProject, CategoryEvent, CategoryOther}
)

// Payment is an immutable, append-only audit record. Creating one is the
// sole regular trigger for payment-status propagation; there is no update
// or delete.
type Payment struct {
	ID            string    `json:"id"`
	ParentID      string    `json:"parent_id"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes,omitempty"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// ParentInfo is the billing view of a parent: just enough to validate a
// payment, scope queries and address the receipt email.
type ParentInfo struct {
	ID       string
	Name     string
	Email    string
	SchoolID string
}

// NewPayment contains information needed to record a new Payment.
type NewPayment struct {
	ParentID      string  `json:"parent_id" validate:"required,uuid4"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Category      string  `json:"category" validate:"required,paycategory"`
	PaymentMethod string  `json:"payment_method" validate:"required,paymethod"`
	Notes         string  `json:"notes"`
	ReceiptURL    string  `json:"receipt_url" validate:"omitempty,url"`
}

func (np *NewPayment) Validate() error {
	np.Category = core.CleanString(np.Category, true /* lower */)
	np.PaymentMethod = core.CleanString(np.PaymentMethod, true /* lower */)
	np.Notes = core.CleanString(np.Notes)
	return core.Validate.Struct(np)
}

type QueryFilter struct {
	ParentID    string    `query:"parent_id"`
	SchoolID    string    `query:"school_id"`
	Category    string    `query:"category"`
	Method      string    `query:"method"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Method = core.CleanString(qf.Method, true /* lower */)
}
