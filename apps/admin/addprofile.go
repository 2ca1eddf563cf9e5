package main

import (
	"context"
	"time"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

// addProfile updates or creates a profile, bypassing the API's permission
// checks; it bootstraps the first admin or treasurer of a school.
func (cli *commandLine) addProfile(name, role, schoolID, userID string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	role = core.CleanString(role, true /* lower */)

	now := time.Now().UTC()
	prof, err := cli.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		prof = account.UserProfile{
			FullName:  name,
			Role:      core.ParseRole(role),
			SchoolID:  schoolID,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = cli.profileRepo.CreateProfile(ctx, prof)
		return err
	}

	prof.FullName = name
	prof.Role = core.ParseRole(role)
	prof.UpdatedAt = now
	_, err = cli.profileRepo.UpdateProfile(ctx, prof)
	return err
}
