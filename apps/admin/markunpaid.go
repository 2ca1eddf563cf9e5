package main

import (
	"context"
)

// markUnpaid clears the derived payment flags of every parent (and their
// students) in a school. Running it is what begins a new billing cycle;
// the payments themselves stay on record.
func (cli *commandLine) markUnpaid(schoolID string) error {
	return cli.familyRepo.ResetSchoolPaymentStatus(context.Background(), schoolID)
}
