package family

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

var (
	// errors
	ErrNotFound        = errors.New("parent not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrParentInUse     = errors.New("parent still has payments")
)

type (
	Repository interface {
		CreateParent(ctx context.Context, par Parent) (Parent, error)
		// GetParentByID eagerly loads the parent's students.
		GetParentByID(ctx context.Context, id string) (Parent, error)
		GetParentByUserID(ctx context.Context, userID string) (Parent, error)
		// QueryParents applies AND operation on available ParentFilter fields.
		// ParentFilter.Search does a case-insensitive match on one of
		// Parent.Name or Parent.Email. An empty result is an empty slice, never nil.
		QueryParents(ctx context.Context, filter ParentFilter, ordering ...core.DBOrdering) ([]Parent, error)
		UpdateParent(ctx context.Context, par Parent) (Parent, error)
		// DeleteParentsByID cascades to the parents' students. Payments are
		// append-only, so a parent with recorded payments cannot be deleted;
		// returns ErrParentInUse.
		DeleteParentsByID(ctx context.Context, ids ...string) error

		// CreateStudent inherits PaymentStatus from the referenced parent;
		// returns ErrNotFound when the parent does not exist.
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available StudentFilter fields.
		QueryStudents(ctx context.Context, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		// OverridePaymentStatus atomically sets the parent's derived flag and
		// cascades it to all of the parent's students (administrative path;
		// the regular path is billing payment creation).
		OverridePaymentStatus(ctx context.Context, parentID string, paid bool, date time.Time) error
		// ResetSchoolPaymentStatus clears the flags for a whole school,
		// starting a new billing cycle.
		ResetSchoolPaymentStatus(ctx context.Context, schoolID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Parents

func (svc *Service) CreateParent(ctx context.Context, rctx core.RequestContext, np NewParent) (Parent, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Parent{}, err
	}
	if !rctx.Role.CanManageRoster() {
		return Parent{}, core.ErrPermissionDenied
	}
	if np.SchoolID != rctx.SchoolID {
		return Parent{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	par := Parent{
		Name:          np.Name,
		ContactNumber: np.ContactNumber,
		Email:         np.Email,
		SchoolID:      np.SchoolID,
		UserID:        np.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateParent(ctx, par)
}

func (svc *Service) QueryParents(ctx context.Context, rctx core.RequestContext, filter ParentFilter, ordering ...core.DBOrdering) ([]Parent, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return nil, err
	}
	switch {
	case rctx.Role.IsStaff():
		filter.SchoolID = rctx.SchoolID
	case rctx.Role == core.RoleParent:
		// self only, via the user_id link
		par, err := svc.repo.GetParentByUserID(ctx, rctx.UserID)
		if err != nil {
			if err == ErrNotFound {
				return []Parent{}, nil
			}
			return nil, err
		}
		return []Parent{par}, nil
	default:
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryParents(ctx, filter, ordering...)
}

func (svc *Service) GetParentByID(ctx context.Context, rctx core.RequestContext, id string) (Parent, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Parent{}, err
	}
	par, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return Parent{}, err
	}
	// out-of-scope lookups look exactly like nonexistent ids
	if par.SchoolID != rctx.SchoolID {
		return Parent{}, ErrNotFound
	}
	switch {
	case rctx.Role.IsStaff():
	case rctx.Role == core.RoleParent && par.UserID == rctx.UserID:
	default:
		return Parent{}, ErrNotFound
	}
	return par, nil
}

func (svc *Service) UpdateParent(ctx context.Context, rctx core.RequestContext, id string, up UpdateParent) (Parent, error) {
	if !rctx.Role.CanManageRoster() {
		if err := rctx.CheckKnownRole(); err != nil {
			return Parent{}, err
		}
		return Parent{}, core.ErrPermissionDenied
	}
	orig, err := svc.GetParentByID(ctx, rctx, id)
	if err != nil {
		return Parent{}, err
	}
	if err := up.Validate(orig); err != nil {
		return Parent{}, err
	}

	par := Parent{
		ID:            orig.ID,
		Name:          up.Name,
		ContactNumber: up.ContactNumber,
		Email:         up.Email,
		UserID:        up.UserID,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateParent(ctx, par)
}

func (svc *Service) DeleteParents(ctx context.Context, rctx core.RequestContext, ids ...string) error {
	if !rctx.Role.CanManageRoster() {
		if err := rctx.CheckKnownRole(); err != nil {
			return err
		}
		return core.ErrPermissionDenied
	}
	for _, id := range ids {
		if _, err := svc.GetParentByID(ctx, rctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteParentsByID(ctx, ids...)
}

// OverridePaymentStatus is the administrative escape hatch for the derived
// payment flags; regular flows go through billing payment creation.
func (svc *Service) OverridePaymentStatus(ctx context.Context, rctx core.RequestContext, parentID string, paid bool) error {
	if err := rctx.CheckKnownRole(); err != nil {
		return err
	}
	if !rctx.Role.CanOverridePaymentFlags() {
		return core.ErrPermissionDenied
	}
	if _, err := svc.GetParentByID(ctx, rctx, parentID); err != nil {
		return err
	}
	var date time.Time
	if paid {
		date = time.Now().UTC()
	}
	return svc.repo.OverridePaymentStatus(ctx, parentID, paid, date)
}

// Students

func (svc *Service) CreateStudent(ctx context.Context, rctx core.RequestContext, ns NewStudent) (Student, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Student{}, err
	}
	if !rctx.Role.CanManageRoster() {
		return Student{}, core.ErrPermissionDenied
	}
	// the parent must be in the caller's school
	if _, err := svc.GetParentByID(ctx, rctx, ns.ParentID); err != nil {
		if err == ErrNotFound {
			return Student{}, core.NewValidationError(err,
				core.FieldError{Field: "parent_id", Error: err.Error()})
		}
		return Student{}, err
	}

	now := time.Now().UTC()
	std := Student{
		Name:          ns.Name,
		StudentNumber: ns.StudentNumber,
		ClassID:       ns.ClassID,
		ParentID:      ns.ParentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) QueryStudents(ctx context.Context, rctx core.RequestContext, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return nil, err
	}
	filter.TeacherUserID = ""
	switch {
	case rctx.Role.IsStaff():
		filter.SchoolID = rctx.SchoolID
	case rctx.Role == core.RoleParent:
		// own children only
		par, err := svc.repo.GetParentByUserID(ctx, rctx.UserID)
		if err != nil {
			if err == ErrNotFound {
				return []Student{}, nil
			}
			return nil, err
		}
		if filter.ParentID != "" && filter.ParentID != par.ID {
			return []Student{}, nil
		}
		filter.ParentID = par.ID
		filter.SchoolID = rctx.SchoolID
	case rctx.Role == core.RoleTeacher:
		// students in own classes only
		filter.SchoolID = rctx.SchoolID
		filter.TeacherUserID = rctx.UserID
	}
	return svc.repo.QueryStudents(ctx, filter, ordering...)
}

func (svc *Service) GetStudentByID(ctx context.Context, rctx core.RequestContext, id string) (Student, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Student{}, err
	}
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	visible, err := svc.QueryStudents(ctx, rctx, StudentFilter{ParentID: std.ParentID})
	if err != nil {
		return Student{}, err
	}
	for _, v := range visible {
		if v.ID == std.ID {
			return std, nil
		}
	}
	return Student{}, ErrStudentNotFound
}

func (svc *Service) UpdateStudent(ctx context.Context, rctx core.RequestContext, id string, us UpdateStudent) (Student, error) {
	if !rctx.Role.CanManageRoster() {
		if err := rctx.CheckKnownRole(); err != nil {
			return Student{}, err
		}
		return Student{}, core.ErrPermissionDenied
	}
	orig, err := svc.GetStudentByID(ctx, rctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := us.Validate(orig); err != nil {
		return Student{}, err
	}

	std := Student{
		ID:            orig.ID,
		Name:          us.Name,
		StudentNumber: us.StudentNumber,
		ClassID:       us.ClassID,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *Service) DeleteStudents(ctx context.Context, rctx core.RequestContext, ids ...string) error {
	if !rctx.Role.CanManageRoster() {
		if err := rctx.CheckKnownRole(); err != nil {
			return err
		}
		return core.ErrPermissionDenied
	}
	for _, id := range ids {
		if _, err := svc.GetStudentByID(ctx, rctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
