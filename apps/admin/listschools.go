package main

import (
	"context"
	"fmt"

	"github.com/trezcool/wazazi/core/school"
)

// listSchools prints every school with its ID; the other commands take
// school IDs as flags.
func (cli *commandLine) listSchools() error {
	schools, err := cli.schoolRepo.QuerySchools(context.Background(), school.QueryFilter{})
	if err != nil {
		return err
	}
	for _, sch := range schools {
		fmt.Printf("%s  %s\n", sch.ID, sch.Name)
	}
	return nil
}
