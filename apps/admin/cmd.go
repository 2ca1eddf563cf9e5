package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sql.DB
	profileRepo account.Repository
	familyRepo  family.Repository
	schoolRepo  school.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  addprofile -name NAME -role ROLE -school SCHOOL_ID -user USER_ID - bootstrap a staff profile")
	fmt.Println("  markunpaid -school SCHOOL_ID - clear payment flags for a school, starting a new billing cycle")
	fmt.Println("  schools - list schools with their IDs")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addProfileCmd := flag.NewFlagSet("addprofile", flag.ExitOnError)
	addProfileName := addProfileCmd.String("name", "", "The profile's full name.")
	addProfileRole := addProfileCmd.String("role", "", "One of: parent, teacher, treasurer, principal, admin.")
	addProfileSchool := addProfileCmd.String("school", "", "The school's ID.")
	addProfileUser := addProfileCmd.String("user", "", "The auth identity (user ID) the profile belongs to.")

	markUnpaidCmd := flag.NewFlagSet("markunpaid", flag.ExitOnError)
	markUnpaidSchool := markUnpaidCmd.String("school", "", "The school's ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addprofile":
		if err := addProfileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProfileName == "" || *addProfileSchool == "" || *addProfileUser == "" {
			addProfileCmd.Usage()
			return errHelp
		}
		if core.ParseRole(*addProfileRole) == core.RoleUnknown {
			addProfileCmd.Usage()
			return errHelp
		}
		return cli.addProfile(*addProfileName, *addProfileRole, *addProfileSchool, *addProfileUser)
	case "markunpaid":
		if err := markUnpaidCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *markUnpaidSchool == "" {
			markUnpaidCmd.Usage()
			return errHelp
		}
		return cli.markUnpaid(*markUnpaidSchool)
	case "schools":
		return cli.listSchools()
	default:
		cli.printUsage()
		return errHelp
	}
}
