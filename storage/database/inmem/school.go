package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// Schools

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) QuerySchools(_ context.Context, filter school.QueryFilter, _ ...core.DBOrdering) ([]school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		if filter.Search != "" && !searchMatch(filter.Search, sch.Name) {
			continue
		}
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	orig.Name = sch.Name
	orig.Address = sch.Address
	orig.UpdatedAt = sch.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) DeleteSchoolByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	// tenancy root is never cascaded
	for _, cls := range repo.db.classes {
		if cls.SchoolID == id {
			return school.ErrSchoolInUse
		}
	}
	for _, par := range repo.db.parents {
		if par.SchoolID == id {
			return school.ErrSchoolInUse
		}
	}
	delete(repo.db.schools, id)
	return nil
}

// Classes

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	cls, ok := repo.db.classes[id]
	if !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	out := *cls
	out.Students = repo.db.queryStudents(studentQuery{classID: id})
	return out, nil
}

func (repo *schoolRepository) QueryClasses(_ context.Context, filter school.QueryFilter, _ ...core.DBOrdering) ([]school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if filter.SchoolID != "" && cls.SchoolID != filter.SchoolID {
			continue
		}
		if filter.TeacherID != "" && cls.TeacherID != filter.TeacherID {
			continue
		}
		if filter.GradeLevel != "" && cls.GradeLevel != filter.GradeLevel {
			continue
		}
		if filter.Search != "" && !searchMatch(filter.Search, cls.Name) {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) UpdateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	orig.Name = cls.Name
	orig.GradeLevel = cls.GradeLevel
	orig.TeacherID = cls.TeacherID
	orig.UpdatedAt = cls.UpdatedAt
	out := *orig
	out.Students = repo.db.queryStudents(studentQuery{classID: out.ID})
	return out, nil
}

func (repo *schoolRepository) DeleteClassesByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.classes, id)
		// students are left unassigned
		for _, std := range repo.db.students {
			if std.ClassID == id {
				std.ClassID = ""
			}
		}
	}
	return nil
}

func (repo *schoolRepository) TeacherProfileUserID(_ context.Context, teacherID string) (string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if prof, ok := repo.db.profiles[teacherID]; ok {
		return prof.UserID, nil
	}
	return "", school.ErrClassNotFound
}
