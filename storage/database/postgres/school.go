package pgrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type (
	schoolRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		Address   string    `db:"address"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	classRow struct {
		ID         string      `db:"id"`
		Name       string      `db:"name"`
		GradeLevel string      `db:"grade_level"`
		SchoolID   string      `db:"school_id"`
		TeacherID  null.String `db:"teacher_id"`
		CreatedAt  time.Time   `db:"created_at"`
		UpdatedAt  time.Time   `db:"updated_at"`
	}
)

func (r schoolRow) toCore() school.School {
	return school.School{
		ID:        r.ID,
		Name:      r.Name,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r classRow) toCore() school.Class {
	return school.Class{
		ID:         r.ID,
		Name:       r.Name,
		GradeLevel: r.GradeLevel,
		SchoolID:   r.SchoolID,
		TeacherID:  r.TeacherID.String,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Schools

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO school (id, name, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		sch.ID, sch.Name, sch.Address, sch.CreatedAt, sch.UpdatedAt,
	)
	if err != nil {
		return school.School{}, trapErr(err, "inserting school", school.ErrNotFound)
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row schoolRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, name, address, created_at, updated_at FROM school WHERE id = $1`, id)
	if err != nil {
		return school.School{}, trapErr(err, "getting school", school.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *schoolRepository) QuerySchools(ctx context.Context, filter school.QueryFilter, ordering ...core.DBOrdering) ([]school.School, error) {
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	q := `SELECT id, name, address, created_at, updated_at FROM school` + where(conds) +
		orderBy(ordering, schoolSortCols, core.DBOrdering{Field: "name", Ascending: true})

	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying schools", school.ErrNotFound)
	}

	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.toCore())
	}
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE school SET name = $1, address = $2, updated_at = $3 WHERE id = $4`,
		sch.Name, sch.Address, sch.UpdatedAt, sch.ID,
	)
	if err != nil {
		return school.School{}, trapErr(err, "updating school", school.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return repo.GetSchoolByID(ctx, sch.ID)
}

func (repo *schoolRepository) DeleteSchoolByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM school WHERE id = $1`, id)
	if err != nil {
		// tenancy root: FKs are ON DELETE RESTRICT
		if isFKViolation(err, "school_id") {
			return school.ErrSchoolInUse
		}
		return trapErr(err, "deleting school", school.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Classes

const classCols = "id, name, grade_level, school_id, teacher_id, created_at, updated_at"

// sortable fields mapped to their columns
var (
	schoolSortCols = map[string]string{
		"name":       "name",
		"created_at": "created_at",
	}
	classSortCols = map[string]string{
		"name":        "name",
		"grade_level": "grade_level",
		"created_at":  "created_at",
	}
)

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO class (`+classCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cls.ID, cls.Name, cls.GradeLevel, cls.SchoolID,
		null.NewString(cls.TeacherID, cls.TeacherID != ""), cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return school.Class{}, trapErr(err, "inserting class", school.ErrClassNotFound)
	}
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+classCols+` FROM class WHERE id = $1`, id)
	if err != nil {
		return school.Class{}, trapErr(err, "getting class", school.ErrClassNotFound)
	}
	cls := row.toCore()

	// eager roster
	students, err := queryStudents(ctx, repo.db, studentQuery{classID: cls.ID},
		core.DBOrdering{Field: "student.name", Ascending: true})
	if err != nil {
		return school.Class{}, err
	}
	cls.Students = students
	return cls, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter school.QueryFilter, ordering ...core.DBOrdering) ([]school.Class, error) {
	var conds []string
	var args []interface{}

	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conds = append(conds, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.GradeLevel != "" {
		args = append(args, filter.GradeLevel)
		conds = append(conds, fmt.Sprintf("grade_level = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	q := `SELECT ` + classCols + ` FROM class` + where(conds) +
		orderBy(ordering, classSortCols, core.DBOrdering{Field: "name", Ascending: true})

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying classes", school.ErrClassNotFound)
	}

	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toCore())
	}
	return classes, nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE class SET name = $1, grade_level = $2, teacher_id = $3, updated_at = $4 WHERE id = $5`,
		cls.Name, cls.GradeLevel, null.NewString(cls.TeacherID, cls.TeacherID != ""), cls.UpdatedAt, cls.ID,
	)
	if err != nil {
		return school.Class{}, trapErr(err, "updating class", school.ErrClassNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return repo.GetClassByID(ctx, cls.ID)
}

func (repo *schoolRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// students are left unassigned (ON DELETE SET NULL)
	q, args, err := sqlx.In(`DELETE FROM class WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting classes", school.ErrClassNotFound)
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return trapErr(err, "deleting classes", school.ErrClassNotFound)
	}
	return nil
}

func (repo *schoolRepository) TeacherProfileUserID(ctx context.Context, teacherID string) (string, error) {
	var userID string
	err := repo.db.GetContext(ctx, &userID,
		`SELECT user_id FROM user_profile WHERE id = $1`, teacherID)
	if err != nil {
		return "", trapErr(err, "resolving class teacher", school.ErrClassNotFound)
	}
	return userID, nil
}
