package pgrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

type profileRow struct {
	ID        string    `db:"id"`
	FullName  string    `db:"full_name"`
	Role      string    `db:"role"`
	SchoolID  string    `db:"school_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r profileRow) toCore() account.UserProfile {
	return account.UserProfile{
		ID:        r.ID,
		FullName:  r.FullName,
		Role:      core.ParseRole(r.Role),
		SchoolID:  r.SchoolID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const profileCols = "id, full_name, role, school_id, user_id, created_at, updated_at"

// sortable fields mapped to their columns
var profileSortCols = map[string]string{
	"full_name":  "full_name",
	"role":       "role",
	"created_at": "created_at",
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof account.UserProfile) (account.UserProfile, error) {
	prof.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO user_profile (`+profileCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		prof.ID, prof.FullName, string(prof.Role), prof.SchoolID, prof.UserID, prof.CreatedAt, prof.UpdatedAt,
	)
	if err != nil {
		return account.UserProfile{}, trapErr(err, "inserting profile", account.ErrNotFound)
	}
	return prof, nil
}

func (repo *profileRepository) getProfile(ctx context.Context, cond string, arg interface{}) (account.UserProfile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+profileCols+` FROM user_profile WHERE `+cond, arg)
	if err != nil {
		return account.UserProfile{}, trapErr(err, "getting profile", account.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (account.UserProfile, error) {
	return repo.getProfile(ctx, "id = $1", id)
}

func (repo *profileRepository) GetProfileByUserID(ctx context.Context, userID string) (account.UserProfile, error) {
	return repo.getProfile(ctx, "user_id = $1", userID)
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter account.QueryFilter, ordering ...core.DBOrdering) ([]account.UserProfile, error) {
	var conds []string
	var args []interface{}

	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("full_name ILIKE $%d", len(args)))
	}

	q := `SELECT ` + profileCols + ` FROM user_profile` + where(conds) +
		orderBy(ordering, profileSortCols, core.DBOrdering{Field: "full_name", Ascending: true})

	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, trapErr(err, "querying profiles", account.ErrNotFound)
	}

	profs := make([]account.UserProfile, 0, len(rows))
	for _, row := range rows {
		profs = append(profs, row.toCore())
	}
	return profs, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof account.UserProfile) (account.UserProfile, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE user_profile SET full_name = $1, role = $2, updated_at = $3 WHERE id = $4`,
		prof.FullName, string(prof.Role), prof.UpdatedAt, prof.ID,
	)
	if err != nil {
		return account.UserProfile{}, trapErr(err, "updating profile", account.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.UserProfile{}, account.ErrNotFound
	}
	return repo.GetProfileByID(ctx, prof.ID)
}

func (repo *profileRepository) DeleteProfilesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM user_profile WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting profiles", account.ErrNotFound)
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return trapErr(err, "deleting profiles", account.ErrNotFound)
	}
	return nil
}
