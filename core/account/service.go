package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

var (
	// errors
	ErrNotFound      = errors.New("profile not found")
	ErrProfileExists = errors.New("a profile for this user already exists")
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, prof UserProfile) (UserProfile, error)
		GetProfileByID(ctx context.Context, id string) (UserProfile, error)
		GetProfileByUserID(ctx context.Context, userID string) (UserProfile, error)
		// QueryProfiles applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on UserProfile.FullName.
		// An empty result is an empty slice, never nil.
		QueryProfiles(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]UserProfile, error)
		UpdateProfile(ctx context.Context, prof UserProfile) (UserProfile, error)
		DeleteProfilesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a profile at first sign-in. Non-admin callers may only
// create their own profile, with the role the auth provider handed them.
func (svc *Service) Create(ctx context.Context, rctx core.RequestContext, np NewProfile) (UserProfile, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return UserProfile{}, err
	}
	if rctx.Role != core.RoleAdmin {
		if np.UserID != rctx.UserID || core.ParseRole(np.Role) != rctx.Role || np.SchoolID != rctx.SchoolID {
			return UserProfile{}, core.ErrPermissionDenied
		}
	}

	if _, err := svc.repo.GetProfileByUserID(ctx, np.UserID); err == nil {
		return UserProfile{}, core.NewValidationError(ErrProfileExists,
			core.FieldError{Field: "user_id", Error: ErrProfileExists.Error()})
	} else if err != ErrNotFound {
		return UserProfile{}, err
	}

	now := time.Now().UTC()
	prof := UserProfile{
		FullName:  np.FullName,
		Role:      core.ParseRole(np.Role),
		SchoolID:  np.SchoolID,
		UserID:    np.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateProfile(ctx, prof)
}

// Query returns the profiles the caller may see: staff see their whole
// school, everyone else only their own profile.
func (svc *Service) Query(ctx context.Context, rctx core.RequestContext, filter QueryFilter, ordering ...core.DBOrdering) ([]UserProfile, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return nil, err
	}
	if !rctx.Role.IsStaff() {
		prof, err := svc.repo.GetProfileByUserID(ctx, rctx.UserID)
		if err != nil {
			if err == ErrNotFound {
				return []UserProfile{}, nil
			}
			return nil, err
		}
		return []UserProfile{prof}, nil
	}
	filter.SchoolID = rctx.SchoolID
	return svc.repo.QueryProfiles(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, rctx core.RequestContext, id string) (UserProfile, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return UserProfile{}, err
	}
	prof, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	// out-of-scope lookups look exactly like nonexistent ids
	if prof.SchoolID != rctx.SchoolID || (!rctx.Role.IsStaff() && prof.UserID != rctx.UserID) {
		return UserProfile{}, ErrNotFound
	}
	return prof, nil
}

func (svc *Service) GetByUser(ctx context.Context, rctx core.RequestContext) (UserProfile, error) {
	if err := rctx.CheckKnownRole(); err != nil {
		return UserProfile{}, err
	}
	return svc.repo.GetProfileByUserID(ctx, rctx.UserID)
}

// Update applies a role-change action. Only admins may change roles; others
// may only rename their own profile.
func (svc *Service) Update(ctx context.Context, rctx core.RequestContext, id string, up UpdateProfile) (UserProfile, error) {
	orig, err := svc.GetByID(ctx, rctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	if err := up.Validate(orig); err != nil {
		return UserProfile{}, err
	}
	if up.Role != "" && rctx.Role != core.RoleAdmin {
		return UserProfile{}, core.ErrPermissionDenied
	}

	prof := UserProfile{
		ID:        orig.ID,
		FullName:  up.FullName,
		Role:      orig.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if up.Role != "" {
		prof.Role = core.ParseRole(up.Role)
	}
	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *Service) Delete(ctx context.Context, rctx core.RequestContext, ids ...string) error {
	if rctx.Role != core.RoleAdmin {
		return core.ErrPermissionDenied
	}
	for _, id := range ids {
		if _, err := svc.GetByID(ctx, rctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteProfilesByID(ctx, ids...)
}
