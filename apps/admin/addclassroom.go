package main

import (
	"context"
	"fmt"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

// addClassroom creates a classroom owned by the given organization.
func (cli *commandLine) addClassroom(name, subject, code, orgID string) error {
	nc := classroom.NewClassroom{
		Name:           core.CleanString(name),
		Subject:        core.CleanString(subject),
		Code:           classroom.NormalizeCode(code),
		OrganizationID: core.CleanString(orgID),
	}

	cls, err := cli.clsSvc.Create(context.Background(), core.Principal{ID: "admin", OrganizationID: orgID}, nc)
	if err != nil {
		return err
	}
	fmt.Printf("classroom %q created: id=%s code=%s\n", cls.Name, cls.ID, cls.Code)
	return nil
}
