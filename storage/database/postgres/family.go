package pgrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
)

type familyRepository struct {
	db *sqlx.DB
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *sqlx.DB) *familyRepository {
	return &familyRepository{db: db}
}

type (
	parentRow struct {
		ID            string      `db:"id"`
		Name          string      `db:"name"`
		ContactNumber null.String `db:"contact_number"`
		Email         null.String `db:"email"`
		PaymentStatus bool        `db:"payment_status"`
		PaymentDate   null.Time   `db:"payment_date"`
		SchoolID      string      `db:"school_id"`
		UserID        null.String `db:"user_id"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	studentRow struct {
		ID            string      `db:"id"`
		Name          string      `db:"name"`
		StudentNumber null.String `db:"student_number"`
		ClassID       null.String `db:"class_id"`
		ParentID      string      `db:"parent_id"`
		PaymentStatus bool        `db:"payment_status"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
		ParentName    null.String `db:"parent_name"`
		ClassName     null.String `db:"class_name"`
	}
)

func (r parentRow) toCore() family.Parent {
	return family.Parent{
		ID:            r.ID,
		Name:          r.Name,
		ContactNumber: r.ContactNumber.String,
		Email:         r.Email.String,
		PaymentStatus: r.PaymentStatus,
		PaymentDate:   r.PaymentDate.Time,
		SchoolID:      r.SchoolID,
		UserID:        r.UserID.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r studentRow) toCore() family.Student {
	return family.Student{
		ID:            r.ID,
		Name:          r.Name,
		StudentNumber: r.StudentNumber.String,
		ClassID:       r.ClassID.String,
		ParentID:      r.ParentID,
		PaymentStatus: r.PaymentStatus,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ParentName:    r.ParentName.String,
		ClassName:     r.ClassName.String,
	}
}

const parentCols = "id, name, contact_number, email, payment_status, payment_date, school_id, user_id, created_at, updated_at"

// sortable fields mapped to their columns
var (
	parentSortCols = map[string]string{
		"name":         "name",
		"email":        "email",
		"payment_date": "payment_date",
		"created_at":   "created_at",
	}
	studentSortCols = map[string]string{
		"name":           "student.name",
		"student_number": "student.student_number",
		"created_at":     "student.created_at",
	}
)

// Parents

func (repo *familyRepository) CreateParent(ctx context.Context, par family.Parent) (family.Parent, error) {
	par.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO parent (`+parentCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		par.ID, par.Name,
		null.NewString(par.ContactNumber, par.ContactNumber != ""),
		null.NewString(par.Email, par.Email != ""),
		par.PaymentStatus,
		null.NewTime(par.PaymentDate.UTC(), !par.PaymentDate.IsZero()),
		par.SchoolID,
		null.NewString(par.UserID, par.UserID != ""),
		par.CreatedAt, par.UpdatedAt,
	)
	if err != nil {
		return family.Parent{}, trapErr(err, "inserting parent", family.ErrNotFound)
	}
	return par, nil
}

func (repo *familyRepository) getParent(ctx context.Context, cond string, arg interface{}) (family.Parent, error) {
	var row parentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+parentCols+` FROM parent WHERE `+cond, arg)
	if err != nil {
		return family.Parent{}, trapErr(err, "getting parent", family.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *familyRepository) GetParentByID(ctx context.Context, id string) (family.Parent, error) {
	par, err := repo.getParent(ctx, "id = $1", id)
	if err != nil {
		return family.Parent{}, err
	}

	// eager children
	students, err := queryStudents(ctx, repo.db, studentQuery{parentID: par.ID},
		core.DBOrdering{Field: "student.name", Ascending: true})
	if err != nil {
		return family.Parent{}, err
	}
	par.Students = students
	return par, nil
}

func (repo *familyRepository) GetParentByUserID(ctx context.Context, userID string) (family.Parent, error) {
	return repo.getParent(ctx, "user_id = $1", userID)
}

func (repo *familyRepository) QueryParents(ctx context.Context, filter family.ParentFilter, ordering ...core.DBOrdering) ([]family.Parent, error) {
	var conds []string
	var args []interface{}

	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	q := `SELECT ` + parentCols + ` FROM parent` + where(conds) +
		orderBy(ordering, parentSortCols, core.DBOrdering{Field: "name", Ascending: true})

	var rows []parentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying parents", family.ErrNotFound)
	}

	parents := make([]family.Parent, 0, len(rows))
	for _, row := range rows {
		parents = append(parents, row.toCore())
	}
	return parents, nil
}

// UpdateParent never touches payment_status/payment_date; those flags belong
// to the propagation path.
func (repo *familyRepository) UpdateParent(ctx context.Context, par family.Parent) (family.Parent, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE parent SET name = $1, contact_number = $2, email = $3, user_id = $4, updated_at = $5 WHERE id = $6`,
		par.Name,
		null.NewString(par.ContactNumber, par.ContactNumber != ""),
		null.NewString(par.Email, par.Email != ""),
		null.NewString(par.UserID, par.UserID != ""),
		par.UpdatedAt, par.ID,
	)
	if err != nil {
		return family.Parent{}, trapErr(err, "updating parent", family.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return family.Parent{}, family.ErrNotFound
	}
	return repo.GetParentByID(ctx, par.ID)
}

func (repo *familyRepository) DeleteParentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// students go with their parent (ON DELETE CASCADE)
	q, args, err := sqlx.In(`DELETE FROM parent WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting parents", family.ErrNotFound)
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		// payment.parent_id is ON DELETE RESTRICT; payments are append-only
		if isFKViolation(err, "parent_id") {
			return family.ErrParentInUse
		}
		return trapErr(err, "deleting parents", family.ErrNotFound)
	}
	return nil
}

func (repo *familyRepository) OverridePaymentStatus(ctx context.Context, parentID string, paid bool, date time.Time) error {
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		// lock the parent row; concurrent propagations serialize here
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM parent WHERE id = $1 FOR UPDATE`, parentID).Scan(&id)
		if err != nil {
			return trapErr(err, "locking parent", family.ErrNotFound)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE parent SET payment_status = $1, payment_date = $2, updated_at = now() WHERE id = $3`,
			paid, null.NewTime(date.UTC(), !date.IsZero()), parentID,
		)
		if err != nil {
			return trapErr(err, "overriding parent payment status", family.ErrNotFound)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE student SET payment_status = $1, updated_at = now() WHERE parent_id = $2`,
			paid, parentID,
		)
		if err != nil {
			return trapErr(err, "overriding student payment status", family.ErrNotFound)
		}
		return nil
	})
}

func (repo *familyRepository) ResetSchoolPaymentStatus(ctx context.Context, schoolID string) error {
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE parent SET payment_status = FALSE, payment_date = NULL, updated_at = now() WHERE school_id = $1`,
			schoolID,
		)
		if err != nil {
			return trapErr(err, "resetting parent payment status", family.ErrNotFound)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE student SET payment_status = FALSE, updated_at = now()
			 WHERE parent_id IN (SELECT id FROM parent WHERE school_id = $1)`,
			schoolID,
		)
		if err != nil {
			return trapErr(err, "resetting student payment status", family.ErrNotFound)
		}
		return nil
	})
}

// Students

type studentQuery struct {
	schoolID      string
	classID       string
	parentID      string
	teacherUserID string
	paymentStatus *bool
	search        string
}

const studentSelect = `
	SELECT student.id, student.name, student.student_number, student.class_id, student.parent_id,
	       student.payment_status, student.created_at, student.updated_at,
	       parent.name AS parent_name, class.name AS class_name
	FROM student
	JOIN parent ON parent.id = student.parent_id
	LEFT JOIN class ON class.id = student.class_id`

// queryStudents is shared with the school repository for eager roster loads.
func queryStudents(ctx context.Context, db *sqlx.DB, sq studentQuery, ordering ...core.DBOrdering) ([]family.Student, error) {
	var conds []string
	var args []interface{}

	if sq.schoolID != "" {
		args = append(args, sq.schoolID)
		conds = append(conds, fmt.Sprintf("parent.school_id = $%d", len(args)))
	}
	if sq.classID != "" {
		args = append(args, sq.classID)
		conds = append(conds, fmt.Sprintf("student.class_id = $%d", len(args)))
	}
	if sq.parentID != "" {
		args = append(args, sq.parentID)
		conds = append(conds, fmt.Sprintf("student.parent_id = $%d", len(args)))
	}
	if sq.teacherUserID != "" {
		args = append(args, sq.teacherUserID)
		conds = append(conds, fmt.Sprintf(
			"student.class_id IN (SELECT class.id FROM class JOIN user_profile ON user_profile.id = class.teacher_id WHERE user_profile.user_id = $%d)",
			len(args)))
	}
	if sq.paymentStatus != nil {
		args = append(args, *sq.paymentStatus)
		conds = append(conds, fmt.Sprintf("student.payment_status = $%d", len(args)))
	}
	if sq.search != "" {
		args = append(args, "%"+sq.search+"%")
		conds = append(conds, fmt.Sprintf("(student.name ILIKE $%d OR student.student_number ILIKE $%d)", len(args), len(args)))
	}

	q := studentSelect + where(conds) +
		orderBy(ordering, studentSortCols, core.DBOrdering{Field: "student.name", Ascending: true})

	var rows []studentRow
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying students", family.ErrStudentNotFound)
	}

	students := make([]family.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toCore())
	}
	return students, nil
}

// CreateStudent inherits the parent's derived payment flag at creation time.
func (repo *familyRepository) CreateStudent(ctx context.Context, std family.Student) (family.Student, error) {
	std.ID = uuid.New().String()
	err := repo.db.QueryRowContext(ctx,
		`INSERT INTO student (id, name, student_number, class_id, parent_id, payment_status, created_at, updated_at)
		 SELECT $1, $2, $3, $4, parent.id, parent.payment_status, $6, $7
		 FROM parent WHERE parent.id = $5
		 RETURNING payment_status`,
		std.ID, std.Name,
		null.NewString(std.StudentNumber, std.StudentNumber != ""),
		null.NewString(std.ClassID, std.ClassID != ""),
		std.ParentID, std.CreatedAt, std.UpdatedAt,
	).Scan(&std.PaymentStatus)
	if err != nil {
		return family.Student{}, trapErr(err, "inserting student", family.ErrNotFound)
	}
	return repo.GetStudentByID(ctx, std.ID)
}

func (repo *familyRepository) GetStudentByID(ctx context.Context, id string) (family.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, studentSelect+` WHERE student.id = $1`, id)
	if err != nil {
		return family.Student{}, trapErr(err, "getting student", family.ErrStudentNotFound)
	}
	return row.toCore(), nil
}

func (repo *familyRepository) QueryStudents(ctx context.Context, filter family.StudentFilter, ordering ...core.DBOrdering) ([]family.Student, error) {
	return queryStudents(ctx, repo.db, studentQuery{
		schoolID:      filter.SchoolID,
		classID:       filter.ClassID,
		parentID:      filter.ParentID,
		teacherUserID: filter.TeacherUserID,
		paymentStatus: filter.PaymentStatus,
		search:        filter.Search,
	}, ordering...)
}

// UpdateStudent never touches payment_status; the flag belongs to the
// propagation path.
func (repo *familyRepository) UpdateStudent(ctx context.Context, std family.Student) (family.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student SET name = $1, student_number = $2, class_id = $3, updated_at = $4 WHERE id = $5`,
		std.Name,
		null.NewString(std.StudentNumber, std.StudentNumber != ""),
		null.NewString(std.ClassID, std.ClassID != ""),
		std.UpdatedAt, std.ID,
	)
	if err != nil {
		return family.Student{}, trapErr(err, "updating student", family.ErrStudentNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return family.Student{}, family.ErrStudentNotFound
	}
	return repo.GetStudentByID(ctx, std.ID)
}

func (repo *familyRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting students", family.ErrStudentNotFound)
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return trapErr(err, "deleting students", family.ErrStudentNotFound)
	}
	return nil
}
