package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/billing"
)

type billingRepository struct {
	db *DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *DB) *billingRepository {
	return &billingRepository{db: db}
}

// CreatePayment propagates the paid status under the DB-wide write lock, so
// the insert and both flag updates land as one unit.
func (repo *billingRepository) CreatePayment(_ context.Context, pmt billing.Payment) (billing.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	par, ok := repo.db.parents[pmt.ParentID]
	if !ok {
		return billing.Payment{}, billing.ErrParentNotFound
	}

	pmt.ID = uuid.New().String()
	repo.db.payments[pmt.ID] = &pmt

	par.PaymentStatus = true
	par.PaymentDate = pmt.CreatedAt
	for _, std := range repo.db.students {
		if std.ParentID == pmt.ParentID {
			std.PaymentStatus = true
		}
	}
	return pmt, nil
}

func (repo *billingRepository) GetPaymentByID(_ context.Context, id string) (billing.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	pmt, ok := repo.db.payments[id]
	if !ok {
		return billing.Payment{}, billing.ErrNotFound
	}
	return *pmt, nil
}

func (repo *billingRepository) QueryPayments(_ context.Context, filter billing.QueryFilter, _ ...core.DBOrdering) ([]billing.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	payments := make([]billing.Payment, 0)
	for _, pmt := range repo.db.payments {
		if filter.ParentID != "" && pmt.ParentID != filter.ParentID {
			continue
		}
		if filter.SchoolID != "" {
			par := repo.db.parents[pmt.ParentID]
			if par == nil || par.SchoolID != filter.SchoolID {
				continue
			}
		}
		if filter.Category != "" && pmt.Category != filter.Category {
			continue
		}
		if filter.Method != "" && pmt.PaymentMethod != filter.Method {
			continue
		}
		if !filter.CreatedFrom.IsZero() && pmt.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && pmt.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		payments = append(payments, *pmt)
	}
	// newest first
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (repo *billingRepository) GetParentInfo(_ context.Context, parentID string) (billing.ParentInfo, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	par, ok := repo.db.parents[parentID]
	if !ok {
		return billing.ParentInfo{}, billing.ErrParentNotFound
	}
	return billing.ParentInfo{ID: par.ID, Name: par.Name, Email: par.Email, SchoolID: par.SchoolID}, nil
}

func (repo *billingRepository) GetParentInfoByUserID(_ context.Context, userID string) (billing.ParentInfo, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, par := range repo.db.parents {
		if userID != "" && par.UserID == userID {
			return billing.ParentInfo{ID: par.ID, Name: par.Name, Email: par.Email, SchoolID: par.SchoolID}, nil
		}
	}
	return billing.ParentInfo{}, billing.ErrParentNotFound
}
