package main

import (
	"errors"
	"flag"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	db     *mongo.Database // nil when backed by the in-mem store (tests)
	clsSvc *classroom.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  ensureindexes - create the classroom store indexes (unique join code)")
	fmt.Println("  addclassroom -name NAME -subject SUBJECT [-code CODE] [-org ORG_ID] - create a classroom")
	fmt.Println("  gentoken -id PRINCIPAL_ID [-email EMAIL] [-org ORG_ID] - issue a session token for manual API calls")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addClassroomCmd := flag.NewFlagSet("addclassroom", flag.ExitOnError)
	addClassroomName := addClassroomCmd.String("name", "", "The classroom's name.")
	addClassroomSubject := addClassroomCmd.String("subject", "", "The classroom's subject.")
	addClassroomCode := addClassroomCmd.String("code", "", "The join code. Generated when omitted.")
	addClassroomOrg := addClassroomCmd.String("org", "", "The owning organization's ID.")

	genTokenCmd := flag.NewFlagSet("gentoken", flag.ExitOnError)
	genTokenID := genTokenCmd.String("id", "", "The principal's ID.")
	genTokenEmail := genTokenCmd.String("email", "", "The principal's email.")
	genTokenOrg := genTokenCmd.String("org", "", "The principal's organization ID.")

	switch args[1] {
	case "ensureindexes":
		return cli.ensureIndexes()
	case "addclassroom":
		if err := addClassroomCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addClassroomName == "" || *addClassroomSubject == "" {
			addClassroomCmd.Usage()
			return errHelp
		}
		return cli.addClassroom(*addClassroomName, *addClassroomSubject, *addClassroomCode, *addClassroomOrg)
	case "gentoken":
		if err := genTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genTokenID == "" {
			genTokenCmd.Usage()
			return errHelp
		}
		return cli.genToken(*genTokenID, *genTokenEmail, *genTokenOrg)
	default:
		cli.printUsage()
		return errHelp
	}
}
