package pgrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/billing"
)

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) *billingRepository {
	return &billingRepository{db: db}
}

type paymentRow struct {
	ID            string      `db:"id"`
	ParentID      string      `db:"parent_id"`
	Amount        float64     `db:"amount"`
	Category      string      `db:"category"`
	PaymentMethod string      `db:"payment_method"`
	Notes         null.String `db:"notes"`
	ReceiptURL    null.String `db:"receipt_url"`
	CreatedBy     string      `db:"created_by"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r paymentRow) toCore() billing.Payment {
	return billing.Payment{
		ID:            r.ID,
		ParentID:      r.ParentID,
		Amount:        r.Amount,
		Category:      r.Category,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes.String,
		ReceiptURL:    r.ReceiptURL.String,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

const paymentCols = "id, parent_id, amount, category, payment_method, notes, receipt_url, created_by, created_at"

// sortable fields mapped to their columns
var paymentSortCols = map[string]string{
	"created_at":     "payment.created_at",
	"amount":         "payment.amount",
	"category":       "payment.category",
	"payment_method": "payment.payment_method",
}

// CreatePayment records the payment and propagates the paid status in a
// single transaction: the parent row is locked first so that concurrent
// payments for the same parent serialize instead of tearing the propagation;
// last write wins on payment_date, and every payment row lands.
func (repo *billingRepository) CreatePayment(ctx context.Context, pmt billing.Payment) (billing.Payment, error) {
	pmt.ID = uuid.New().String()

	err := core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		var parentID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM parent WHERE id = $1 FOR UPDATE`, pmt.ParentID).Scan(&parentID)
		if err != nil {
			return trapErr(err, "locking parent", billing.ErrParentNotFound)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO payment (`+paymentCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pmt.ID, pmt.ParentID, pmt.Amount, pmt.Category, pmt.PaymentMethod,
			null.NewString(pmt.Notes, pmt.Notes != ""),
			null.NewString(pmt.ReceiptURL, pmt.ReceiptURL != ""),
			pmt.CreatedBy, pmt.CreatedAt,
		)
		if err != nil {
			return trapErr(err, "inserting payment", billing.ErrParentNotFound)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE parent SET payment_status = TRUE, payment_date = $1, updated_at = now() WHERE id = $2`,
			pmt.CreatedAt, pmt.ParentID,
		)
		if err != nil {
			return trapErr(err, "marking parent paid", billing.ErrParentNotFound)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE student SET payment_status = TRUE, updated_at = now() WHERE parent_id = $1`,
			pmt.ParentID,
		)
		if err != nil {
			return trapErr(err, "marking students paid", billing.ErrParentNotFound)
		}
		return nil
	})
	if err != nil {
		return billing.Payment{}, err
	}
	return pmt, nil
}

func (repo *billingRepository) GetPaymentByID(ctx context.Context, id string) (billing.Payment, error) {
	var row paymentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+paymentCols+` FROM payment WHERE id = $1`, id)
	if err != nil {
		return billing.Payment{}, trapErr(err, "getting payment", billing.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *billingRepository) QueryPayments(ctx context.Context, filter billing.QueryFilter, ordering ...core.DBOrdering) ([]billing.Payment, error) {
	var conds []string
	var args []interface{}

	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		conds = append(conds, fmt.Sprintf("payment.parent_id = $%d", len(args)))
	}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conds = append(conds, fmt.Sprintf("parent.school_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("payment.category = $%d", len(args)))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		conds = append(conds, fmt.Sprintf("payment.payment_method = $%d", len(args)))
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom.UTC())
		conds = append(conds, fmt.Sprintf("payment.created_at >= $%d", len(args)))
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo.UTC())
		conds = append(conds, fmt.Sprintf("payment.created_at <= $%d", len(args)))
	}

	q := `SELECT payment.id, payment.parent_id, payment.amount, payment.category, payment.payment_method,
	             payment.notes, payment.receipt_url, payment.created_by, payment.created_at
	      FROM payment
	      JOIN parent ON parent.id = payment.parent_id` + where(conds) +
		orderBy(ordering, paymentSortCols, core.DBOrdering{Field: "payment.created_at", Ascending: false})

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying payments", billing.ErrNotFound)
	}

	payments := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toCore())
	}
	return payments, nil
}

func (repo *billingRepository) getParentInfo(ctx context.Context, cond string, arg interface{}) (billing.ParentInfo, error) {
	var row struct {
		ID       string      `db:"id"`
		Name     string      `db:"name"`
		Email    null.String `db:"email"`
		SchoolID string      `db:"school_id"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, name, email, school_id FROM parent WHERE `+cond, arg)
	if err != nil {
		return billing.ParentInfo{}, trapErr(err, "getting parent info", billing.ErrParentNotFound)
	}
	return billing.ParentInfo{
		ID:       row.ID,
		Name:     row.Name,
		Email:    row.Email.String,
		SchoolID: row.SchoolID,
	}, nil
}

func (repo *billingRepository) GetParentInfo(ctx context.Context, parentID string) (billing.ParentInfo, error) {
	return repo.getParentInfo(ctx, "id = $1", parentID)
}

func (repo *billingRepository) GetParentInfoByUserID(ctx context.Context, userID string) (billing.ParentInfo, error) {
	return repo.getParentInfo(ctx, "user_id = $1", userID)
}
