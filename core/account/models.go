package account

import (
	"time"

	"github.com/trezcool/wazazi/core"
)

// UserProfile links an authenticated identity (UserID, issued by the auth
// provider) to a role and a school. One profile per identity.
type UserProfile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Role      core.Role `json:"role"`
	SchoolID  string    `json:"school_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewProfile contains information needed to create a new UserProfile.
type NewProfile struct {
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
	SchoolID string `json:"school_id" validate:"required,uuid4"`
	UserID   string `json:"user_id" validate:"required"`
}

func (np *NewProfile) Validate() error {
	np.FullName = core.CleanString(np.FullName)
	np.Role = core.CleanString(np.Role, true /* lower */)
	return core.Validate.Struct(np)
}

// UpdateProfile defines what information may be provided to modify an
// existing UserProfile. Role changes are restricted to admins by the service.
type UpdateProfile struct {
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,role"`
}

func (up *UpdateProfile) Validate(orig UserProfile) error {
	name := core.CleanString(up.FullName)
	if name != "" {
		up.FullName = name
	} else {
		up.FullName = orig.FullName
	}
	up.Role = core.CleanString(up.Role, true /* lower */)
	return core.Validate.Struct(up)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	SchoolID string `query:"school_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
