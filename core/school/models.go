package school

import (
	"time"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
)

type (
	// School is the root of tenancy; every Class and Parent belongs to
	// exactly one School and nothing is visible across School boundaries.
	School struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Address   string    `json:"address"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Class struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		GradeLevel string    `json:"grade_level"`
		SchoolID   string    `json:"school_id"`
		TeacherID  string    `json:"teacher_id,omitempty"` // UserProfile.ID
		CreatedAt  time.Time `json:"created_at"`           // UTC
		UpdatedAt  time.Time `json:"updated_at"`           // UTC

		// roster, eagerly loaded on detail reads
		Students []family.Student `json:"students,omitempty"`
	}
)

type NewSchool struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

func (ns *NewSchool) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	return core.Validate.Struct(ns)
}

type UpdateSchool struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (us *UpdateSchool) Validate(orig School) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	addr := core.CleanString(us.Address)
	if addr != "" {
		us.Address = addr
	} else {
		us.Address = orig.Address
	}
	return core.Validate.Struct(us)
}

type NewClass struct {
	Name       string `json:"name" validate:"required"`
	GradeLevel string `json:"grade_level"`
	SchoolID   string `json:"school_id" validate:"required,uuid4"`
	TeacherID  string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.GradeLevel = core.CleanString(nc.GradeLevel)
	return core.Validate.Struct(nc)
}

type UpdateClass struct {
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
	TeacherID  string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (uc *UpdateClass) Validate(orig Class) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	grade := core.CleanString(uc.GradeLevel)
	if grade != "" {
		uc.GradeLevel = grade
	} else {
		uc.GradeLevel = orig.GradeLevel
	}
	return core.Validate.Struct(uc)
}

type QueryFilter struct {
	Search     string `query:"search"`
	SchoolID   string `query:"school_id"`
	GradeLevel string `query:"grade_level"`
	TeacherID  string `query:"teacher_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.GradeLevel = core.CleanString(qf.GradeLevel)
}
