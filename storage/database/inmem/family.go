package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
)

type familyRepository struct {
	db *DB
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *DB) *familyRepository {
	return &familyRepository{db: db}
}

type studentQuery struct {
	schoolID      string
	classID       string
	parentID      string
	teacherUserID string
	paymentStatus *bool
	search        string
}

// queryStudents flattens relation names in; callers must hold db.mu.
func (db *DB) queryStudents(sq studentQuery) []family.Student {
	students := make([]family.Student, 0)
	for _, std := range db.students {
		par := db.parents[std.ParentID]
		if par == nil {
			continue
		}
		if sq.schoolID != "" && par.SchoolID != sq.schoolID {
			continue
		}
		if sq.classID != "" && std.ClassID != sq.classID {
			continue
		}
		if sq.parentID != "" && std.ParentID != sq.parentID {
			continue
		}
		if sq.teacherUserID != "" {
			cls := db.classes[std.ClassID]
			if cls == nil || cls.TeacherID == "" {
				continue
			}
			prof := db.profiles[cls.TeacherID]
			if prof == nil || prof.UserID != sq.teacherUserID {
				continue
			}
		}
		if sq.paymentStatus != nil && std.PaymentStatus != *sq.paymentStatus {
			continue
		}
		if sq.search != "" && !searchMatch(sq.search, std.Name, std.StudentNumber) {
			continue
		}

		out := *std
		out.ParentName = par.Name
		if cls := db.classes[std.ClassID]; cls != nil {
			out.ClassName = cls.Name
		}
		students = append(students, out)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

// Parents

func (repo *familyRepository) CreateParent(_ context.Context, par family.Parent) (family.Parent, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	par.ID = uuid.New().String()
	repo.db.parents[par.ID] = &par
	return par, nil
}

func (repo *familyRepository) GetParentByID(_ context.Context, id string) (family.Parent, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	par, ok := repo.db.parents[id]
	if !ok {
		return family.Parent{}, family.ErrNotFound
	}
	out := *par
	out.Students = repo.db.queryStudents(studentQuery{parentID: id})
	return out, nil
}

func (repo *familyRepository) GetParentByUserID(_ context.Context, userID string) (family.Parent, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, par := range repo.db.parents {
		if par.UserID == userID && userID != "" {
			return *par, nil
		}
	}
	return family.Parent{}, family.ErrNotFound
}

func (repo *familyRepository) QueryParents(_ context.Context, filter family.ParentFilter, _ ...core.DBOrdering) ([]family.Parent, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	parents := make([]family.Parent, 0, len(repo.db.parents))
	for _, par := range repo.db.parents {
		if filter.SchoolID != "" && par.SchoolID != filter.SchoolID {
			continue
		}
		if filter.UserID != "" && par.UserID != filter.UserID {
			continue
		}
		if filter.PaymentStatus != nil && par.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.Search != "" && !searchMatch(filter.Search, par.Name, par.Email) {
			continue
		}
		parents = append(parents, *par)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].Name < parents[j].Name })
	return parents, nil
}

func (repo *familyRepository) UpdateParent(_ context.Context, par family.Parent) (family.Parent, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.parents[par.ID]
	if !ok {
		return family.Parent{}, family.ErrNotFound
	}
	// payment_status/payment_date belong to the propagation path
	orig.Name = par.Name
	orig.ContactNumber = par.ContactNumber
	orig.Email = par.Email
	orig.UserID = par.UserID
	orig.UpdatedAt = par.UpdatedAt
	out := *orig
	out.Students = repo.db.queryStudents(studentQuery{parentID: out.ID})
	return out, nil
}

func (repo *familyRepository) DeleteParentsByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// payments are append-only; a parent with recorded payments stays
	for _, pmt := range repo.db.payments {
		for _, id := range ids {
			if pmt.ParentID == id {
				return family.ErrParentInUse
			}
		}
	}
	for _, id := range ids {
		delete(repo.db.parents, id)
		// students go with their parent
		for sid, std := range repo.db.students {
			if std.ParentID == id {
				delete(repo.db.students, sid)
			}
		}
	}
	return nil
}

func (repo *familyRepository) OverridePaymentStatus(_ context.Context, parentID string, paid bool, date time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	par, ok := repo.db.parents[parentID]
	if !ok {
		return family.ErrNotFound
	}
	par.PaymentStatus = paid
	par.PaymentDate = date
	for _, std := range repo.db.students {
		if std.ParentID == parentID {
			std.PaymentStatus = paid
		}
	}
	return nil
}

func (repo *familyRepository) ResetSchoolPaymentStatus(_ context.Context, schoolID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, par := range repo.db.parents {
		if par.SchoolID != schoolID {
			continue
		}
		par.PaymentStatus = false
		par.PaymentDate = time.Time{}
		for _, std := range repo.db.students {
			if std.ParentID == par.ID {
				std.PaymentStatus = false
			}
		}
	}
	return nil
}

// Students

func (repo *familyRepository) CreateStudent(_ context.Context, std family.Student) (family.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	par, ok := repo.db.parents[std.ParentID]
	if !ok {
		return family.Student{}, family.ErrNotFound
	}
	std.ID = uuid.New().String()
	std.PaymentStatus = par.PaymentStatus // inherited at creation time
	repo.db.students[std.ID] = &std

	out := std
	out.ParentName = par.Name
	if cls := repo.db.classes[std.ClassID]; cls != nil {
		out.ClassName = cls.Name
	}
	return out, nil
}

func (repo *familyRepository) GetStudentByID(_ context.Context, id string) (family.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	std, ok := repo.db.students[id]
	if !ok {
		return family.Student{}, family.ErrStudentNotFound
	}
	out := *std
	if par := repo.db.parents[std.ParentID]; par != nil {
		out.ParentName = par.Name
	}
	if cls := repo.db.classes[std.ClassID]; cls != nil {
		out.ClassName = cls.Name
	}
	return out, nil
}

func (repo *familyRepository) QueryStudents(_ context.Context, filter family.StudentFilter, _ ...core.DBOrdering) ([]family.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.queryStudents(studentQuery{
		schoolID:      filter.SchoolID,
		classID:       filter.ClassID,
		parentID:      filter.ParentID,
		teacherUserID: filter.TeacherUserID,
		paymentStatus: filter.PaymentStatus,
		search:        filter.Search,
	}), nil
}

func (repo *familyRepository) UpdateStudent(_ context.Context, std family.Student) (family.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return family.Student{}, family.ErrStudentNotFound
	}
	// payment_status belongs to the propagation path
	orig.Name = std.Name
	orig.StudentNumber = std.StudentNumber
	orig.ClassID = std.ClassID
	orig.UpdatedAt = std.UpdatedAt

	out := *orig
	if par := repo.db.parents[orig.ParentID]; par != nil {
		out.ParentName = par.Name
	}
	if cls := repo.db.classes[orig.ClassID]; cls != nil {
		out.ClassName = cls.Name
	}
	return out, nil
}

func (repo *familyRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}
