package family

import (
	"time"

	"github.com/trezcool/wazazi/core"
)

type (
	// Parent is a PTA member. PaymentStatus and PaymentDate are derived
	// flags: they are only ever written by the billing propagation rule or
	// by the admin override, never by regular update flows.
	Parent struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		ContactNumber string    `json:"contact_number,omitempty"`
		Email         string    `json:"email,omitempty"`
		PaymentStatus bool      `json:"payment_status"`
		PaymentDate   time.Time `json:"payment_date,omitempty"` // UTC; zero when unpaid
		SchoolID      string    `json:"school_id"`
		UserID        string    `json:"user_id,omitempty"` // auth identity link
		CreatedAt     time.Time `json:"created_at"`        // UTC
		UpdatedAt     time.Time `json:"updated_at"`        // UTC

		// children, eagerly loaded on detail reads
		Students []Student `json:"students,omitempty"`
	}

	// Student belongs to one Parent; ClassID is empty in the transitional
	// "no class assigned" state. PaymentStatus mirrors the parent's flag.
	Student struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		StudentNumber string    `json:"student_number,omitempty"`
		ClassID       string    `json:"class_id,omitempty"`
		ParentID      string    `json:"parent_id"`
		PaymentStatus bool      `json:"payment_status"`
		CreatedAt     time.Time `json:"created_at"` // UTC
		UpdatedAt     time.Time `json:"updated_at"` // UTC

		// flattened relation names so list pages need no second round trip
		ParentName string `json:"parent_name,omitempty"`
		ClassName  string `json:"class_name,omitempty"`
	}
)

type NewParent struct {
	Name          string `json:"name" validate:"required"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email" validate:"omitempty,email"`
	SchoolID      string `json:"school_id" validate:"required,uuid4"`
	UserID        string `json:"user_id"`
}

func (np *NewParent) Validate() error {
	np.Name = core.CleanString(np.Name)
	np.ContactNumber = core.CleanString(np.ContactNumber)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return core.Validate.Struct(np)
}

type UpdateParent struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email" validate:"omitempty,email"`
	UserID        string `json:"user_id"`
}

func (up *UpdateParent) Validate(orig Parent) error {
	name := core.CleanString(up.Name)
	if name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if num := core.CleanString(up.ContactNumber); num != "" {
		up.ContactNumber = num
	} else {
		up.ContactNumber = orig.ContactNumber
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}
	if up.UserID == "" {
		up.UserID = orig.UserID
	}
	return core.Validate.Struct(up)
}

type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	StudentNumber string `json:"student_number"`
	ClassID       string `json:"class_id" validate:"omitempty,uuid4"`
	ParentID      string `json:"parent_id" validate:"required,uuid4"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	return core.Validate.Struct(ns)
}

type UpdateStudent struct {
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
	ClassID       string `json:"class_id" validate:"omitempty,uuid4"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if num := core.CleanString(us.StudentNumber); num != "" {
		us.StudentNumber = num
	} else {
		us.StudentNumber = orig.StudentNumber
	}
	if us.ClassID == "" {
		us.ClassID = orig.ClassID
	}
	return core.Validate.Struct(us)
}

type ParentFilter struct {
	Search        string `query:"search"`
	SchoolID      string `query:"school_id"`
	UserID        string `query:"user_id"`
	PaymentStatus *bool  `query:"payment_status"`
}

func (qf *ParentFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type StudentFilter struct {
	Search        string `query:"search"`
	SchoolID      string `query:"school_id"`
	ClassID       string `query:"class_id"`
	ParentID      string `query:"parent_id"`
	PaymentStatus *bool  `query:"payment_status"`

	// TeacherUserID narrows to students in classes taught by the profile
	// linked to this auth identity.
	TeacherUserID string `query:"-"`
}

func (qf *StudentFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
