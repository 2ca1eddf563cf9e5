package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

type profileRepository struct {
	db *DB
}

var _ account.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(_ context.Context, prof account.UserProfile) (account.UserProfile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prof.ID = uuid.New().String()
	repo.db.profiles[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (account.UserProfile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if prof, ok := repo.db.profiles[id]; ok {
		return *prof, nil
	}
	return account.UserProfile{}, account.ErrNotFound
}

func (repo *profileRepository) GetProfileByUserID(_ context.Context, userID string) (account.UserProfile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, prof := range repo.db.profiles {
		if prof.UserID == userID {
			return *prof, nil
		}
	}
	return account.UserProfile{}, account.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter account.QueryFilter, _ ...core.DBOrdering) ([]account.UserProfile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	profs := make([]account.UserProfile, 0, len(repo.db.profiles))
	for _, prof := range repo.db.profiles {
		if filter.SchoolID != "" && prof.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Role != "" && prof.Role != core.ParseRole(filter.Role) {
			continue
		}
		if filter.Search != "" && !searchMatch(filter.Search, prof.FullName) {
			continue
		}
		profs = append(profs, *prof)
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].FullName < profs[j].FullName })
	return profs, nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, prof account.UserProfile) (account.UserProfile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.profiles[prof.ID]
	if !ok {
		return account.UserProfile{}, account.ErrNotFound
	}
	orig.FullName = prof.FullName
	orig.Role = prof.Role
	orig.UpdatedAt = prof.UpdatedAt
	return *orig, nil
}

func (repo *profileRepository) DeleteProfilesByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.profiles, id)
	}
	return nil
}
