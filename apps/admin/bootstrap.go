package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

// bootstrap creates or refreshes the superadmin credentials and grants the role.
func (cli *commandLine) bootstrap(ctx context.Context, email, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	if !cli.app.Conf.IsSuperadminEmail(email) {
		return fmt.Errorf("%s is not the designated superadmin email", email)
	}
	if err := checkPassword(pwd, email); err != nil {
		return err
	}

	session, err := cli.app.Identity.CreateAccount(ctx, email, pwd)
	switch {
	case err == nil:
	case core.IsKind(err, core.KindAlreadyExists):
		if err := cli.app.Identity.SetPassword(ctx, email, pwd); err != nil {
			return err
		}
		id, err := cli.app.Stores.Identities.FindByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "loading superadmin identity")
		}
		session = core.Session{UserID: id.ID, Email: id.Email}
	default:
		return err
	}

	res, err := cli.app.UserSvc.BootstrapSuperadmin(ctx, session.UserID, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, res.Message)
	return nil
}
