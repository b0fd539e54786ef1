package main

import (
	"fmt"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
)

// genToken issues a session token the way the identity provider would,
// for manual API calls against a local instance.
func (cli *commandLine) genToken(id, email, orgID string) error {
	claims := echoapi.GetPrincipalClaims(cli.conf, core.Principal{
		ID:             core.CleanString(id),
		Email:          core.CleanString(email, true /* lower */),
		OrganizationID: core.CleanString(orgID),
	})
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
