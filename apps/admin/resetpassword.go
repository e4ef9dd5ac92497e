package main

import (
	"context"
	"fmt"

	"github.com/speakhq/speakadmin/core"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	if err := checkPassword(pwd, email); err != nil {
		return err
	}
	if err := cli.app.Identity.SetPassword(ctx, email, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password updated for %s\n", email)
	return nil
}
