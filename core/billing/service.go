package billing

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

var (
	// errors
	ErrNotFound       = errors.New("payment not found")
	ErrParentNotFound = errors.New("parent not found")
)

type (
	Repository interface {
		// CreatePayment inserts the payment and propagates the paid status to
		// the owning parent and all of its students in one atomic unit:
		// either all of it lands or none of it does. Concurrent creations for
		// the same parent serialize; both payments are recorded.
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id string) (Payment, error)
		// QueryPayments applies AND operation on available QueryFilter
		// fields; SchoolID is resolved through the owning parent. An empty
		// result is an empty slice, never nil.
		QueryPayments(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Payment, error)

		GetParentInfo(ctx context.Context, parentID string) (ParentInfo, error)
		GetParentInfoByUserID(ctx context.Context, userID string) (ParentInfo, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		logger:  logger,
	}
}

// Create records a payment and fires the status propagation. Only the
// treasurer and the admin may record payments.
func (svc *Service) Create(ctx context.Context, rctx core.RequestContext, np NewPayment) (Payment, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Payment{}, err
	}
	if !rctx.Role.CanRecordPayments() {
		return Payment{}, core.ErrPermissionDenied
	}
	// callers other than the API (the admin CLI) skip the handler's check
	if err := np.Validate(); err != nil {
		return Payment{}, err
	}

	pinfo, err := svc.repo.GetParentInfo(ctx, np.ParentID)
	if err != nil {
		if err == ErrParentNotFound {
			return Payment{}, core.NewValidationError(err,
				core.FieldError{Field: "parent_id", Error: err.Error()})
		}
		return Payment{}, err
	}
	// a parent in another school is indistinguishable from a missing one
	if pinfo.SchoolID != rctx.SchoolID {
		return Payment{}, core.NewValidationError(ErrParentNotFound,
			core.FieldError{Field: "parent_id", Error: ErrParentNotFound.Error()})
	}

	pmt := Payment{
		ParentID:      np.ParentID,
		Amount:        np.Amount,
		Category:      np.Category,
		PaymentMethod: np.PaymentMethod,
		Notes:         np.Notes,
		ReceiptURL:    np.ReceiptURL,
		CreatedBy:     rctx.UserID,
		CreatedAt:     time.Now().UTC(),
	}
	pmt, err = svc.repo.CreatePayment(ctx, pmt)
	if err != nil {
		return Payment{}, err
	}

	svc.sendReceipt(pmt, pinfo)
	return pmt, nil
}

func (svc *Service) Query(ctx context.Context, rctx core.RequestContext, filter QueryFilter, ordering ...core.DBOrdering) ([]Payment, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return nil, err
	}
	switch {
	case rctx.Role.IsStaff():
		filter.SchoolID = rctx.SchoolID
	case rctx.Role == core.RoleParent:
		// own payments only
		pinfo, err := svc.repo.GetParentInfoByUserID(ctx, rctx.UserID)
		if err != nil {
			if err == ErrParentNotFound {
				return []Payment{}, nil
			}
			return nil, err
		}
		filter.ParentID = pinfo.ID
		filter.SchoolID = rctx.SchoolID
	default:
		return nil, core.ErrPermissionDenied
	}
	// newest first unless the caller orders otherwise
	return svc.repo.QueryPayments(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, rctx core.RequestContext, id string) (Payment, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Payment{}, err
	}
	pmt, err := svc.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	pinfo, err := svc.repo.GetParentInfo(ctx, pmt.ParentID)
	if err != nil {
		return Payment{}, err
	}
	// out-of-scope lookups look exactly like nonexistent ids
	if pinfo.SchoolID != rctx.SchoolID {
		return Payment{}, ErrNotFound
	}
	switch {
	case rctx.Role.IsStaff():
	case rctx.Role == core.RoleParent:
		own, err := svc.repo.GetParentInfoByUserID(ctx, rctx.UserID)
		if err != nil || own.ID != pmt.ParentID {
			return Payment{}, ErrNotFound
		}
	default:
		return Payment{}, ErrNotFound
	}
	return pmt, nil
}

// sendReceipt emails the parent a receipt; best-effort, a failure never
// fails the payment.
func (svc *Service) sendReceipt(pmt Payment, pinfo ParentInfo) {
	if pinfo.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: pinfo.Name, Address: pinfo.Email}},
		Subject:      fmt.Sprintf("Payment received: %s", pmt.Category),
		TemplateName: "payment-receipt",
		TemplateData: struct {
			ParentName string
			Payment    Payment
		}{pinfo.Name, pmt},
	}
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering receipt email: %v", err), err)
		return
	}
	svc.mailSvc.SendMessages(msg)
}
