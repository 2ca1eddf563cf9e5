package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

var (
	// errors
	ErrNotFound      = errors.New("school not found")
	ErrClassNotFound = errors.New("class not found")
	ErrSchoolInUse   = errors.New("school still has classes or parents")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		// QuerySchools applies AND operation on available QueryFilter fields.
		// An empty result is an empty slice, never nil.
		QuerySchools(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		// DeleteSchoolByID fails with ErrSchoolInUse while classes or parents
		// still reference the school (tenancy root is never cascaded).
		DeleteSchoolByID(ctx context.Context, id string) error

		CreateClass(ctx context.Context, cls Class) (Class, error)
		// GetClassByID eagerly loads the class roster.
		GetClassByID(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		// DeleteClassesByID leaves the classes' students unassigned.
		DeleteClassesByID(ctx context.Context, ids ...string) error

		// TeacherProfileUserID resolves a class teacher (UserProfile.ID) to
		// the auth identity it belongs to; "" when unassigned.
		TeacherProfileUserID(ctx context.Context, teacherID string) (string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Schools

func (svc *Service) CreateSchool(ctx context.Context, rctx core.RequestContext, ns NewSchool) (School, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return School{}, err
	}
	if rctx.Role != core.RoleAdmin {
		return School{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	sch := School{
		Name:      ns.Name,
		Address:   ns.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

// GetSchool returns the caller's own school; the tenancy boundary makes any
// other school invisible.
func (svc *Service) GetSchool(ctx context.Context, rctx core.RequestContext) (School, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return School{}, err
	}
	return svc.repo.GetSchoolByID(ctx, rctx.SchoolID)
}

func (svc *Service) UpdateSchool(ctx context.Context, rctx core.RequestContext, id string, us UpdateSchool) (School, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return School{}, err
	}
	if !rctx.Role.CanManageSchool() || id != rctx.SchoolID {
		return School{}, core.ErrPermissionDenied
	}
	orig, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if err := us.Validate(orig); err != nil {
		return School{}, err
	}

	sch := School{
		ID:        orig.ID,
		Name:      us.Name,
		Address:   us.Address,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSchool(ctx, sch)
}

func (svc *Service) DeleteSchool(ctx context.Context, rctx core.RequestContext, id string) error {
	if err := rctx.CheckKnownRole(); err != nil {
		return err
	}
	if rctx.Role != core.RoleAdmin || id != rctx.SchoolID {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteSchoolByID(ctx, id)
}

// Classes

func (svc *Service) CreateClass(ctx context.Context, rctx core.RequestContext, nc NewClass) (Class, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Class{}, err
	}
	if !rctx.Role.CanManageSchool() {
		return Class{}, core.ErrPermissionDenied
	}
	if nc.SchoolID != rctx.SchoolID {
		return Class{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	cls := Class{
		Name:       nc.Name,
		GradeLevel: nc.GradeLevel,
		SchoolID:   nc.SchoolID,
		TeacherID:  nc.TeacherID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) QueryClasses(ctx context.Context, rctx core.RequestContext, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return nil, err
	}
	switch {
	case rctx.Role.IsStaff():
		filter.SchoolID = rctx.SchoolID
	case rctx.Role == core.RoleTeacher:
		// own classes only; narrowed per class below since TeacherID is a
		// profile id, not an auth identity
		filter.SchoolID = rctx.SchoolID
		classes, err := svc.repo.QueryClasses(ctx, filter, ordering...)
		if err != nil {
			return nil, err
		}
		own := make([]Class, 0, len(classes))
		for _, cls := range classes {
			if cls.TeacherID == "" {
				continue
			}
			userID, err := svc.repo.TeacherProfileUserID(ctx, cls.TeacherID)
			if err != nil {
				return nil, err
			}
			if userID == rctx.UserID {
				own = append(own, cls)
			}
		}
		return own, nil
	default:
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryClasses(ctx, filter, ordering...)
}

func (svc *Service) GetClassByID(ctx context.Context, rctx core.RequestContext, id string) (Class, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return Class{}, err
	}
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	// out-of-scope lookups look exactly like nonexistent ids
	if cls.SchoolID != rctx.SchoolID {
		return Class{}, ErrClassNotFound
	}
	switch {
	case rctx.Role.IsStaff():
	case rctx.Role == core.RoleTeacher:
		if cls.TeacherID == "" {
			return Class{}, ErrClassNotFound
		}
		userID, err := svc.repo.TeacherProfileUserID(ctx, cls.TeacherID)
		if err != nil {
			return Class{}, err
		}
		if userID != rctx.UserID {
			return Class{}, ErrClassNotFound
		}
	default:
		return Class{}, ErrClassNotFound
	}
	return cls, nil
}

func (svc *Service) UpdateClass(ctx context.Context, rctx core.RequestContext, id string, uc UpdateClass) (Class, error) {
	if !rctx.Role.CanManageSchool() {
		if err := rctx.CheckKnownRole(); err != nil {
			return Class{}, err
		}
		return Class{}, core.ErrPermissionDenied
	}
	orig, err := svc.GetClassByID(ctx, rctx, id)
	if err != nil {
		return Class{}, err
	}
	if err := uc.Validate(orig); err != nil {
		return Class{}, err
	}

	cls := Class{
		ID:         orig.ID,
		Name:       uc.Name,
		GradeLevel: uc.GradeLevel,
		TeacherID:  uc.TeacherID,
		UpdatedAt:  time.Now().UTC(),
	}
	if cls.TeacherID == "" {
		cls.TeacherID = orig.TeacherID
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) DeleteClasses(ctx context.Context, rctx core.RequestContext, ids ...string) error {
	if !rctx.Role.CanManageSchool() {
		if err := rctx.CheckKnownRole(); err != nil {
			return err
		}
		return core.ErrPermissionDenied
	}
	for _, id := range ids {
		if _, err := svc.GetClassByID(ctx, rctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteClassesByID(ctx, ids...)
}
