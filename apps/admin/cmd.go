package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/speakhq/speakadmin/apps/app"
	"github.com/speakhq/speakadmin/core"
	emailsvc "github.com/speakhq/speakadmin/services/email"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

const cmdTimeout = 30 * time.Second

type commandLine struct {
	app *app.App
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  bootstrap -email EMAIL      - create the superadmin account; the password will be prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL  - reset an account's password; the password will be prompted")
	fmt.Fprintln(cli.out, "  checkstore                  - verify the store collections are reachable")
	fmt.Fprintln(cli.out, "  testemail -to EMAIL         - send the email configuration test message")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	bootstrapCmd := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	bootstrapEmail := bootstrapCmd.String("email", "", "The superadmin email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	testEmailCmd := flag.NewFlagSet("testemail", flag.ContinueOnError)
	testEmailTo := testEmailCmd.String("to", "", "The recipient of the test email.")

	for _, fs := range []*flag.FlagSet{bootstrapCmd, resetPasswordCmd, testEmailCmd} {
		fs.SetOutput(cli.out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	switch args[1] {
	case "bootstrap":
		if err := bootstrapCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *bootstrapEmail == "" {
			bootstrapCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			bootstrapCmd.Usage()
			return errHelp
		}
		return cli.bootstrap(ctx, *bootstrapEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)
	case "checkstore":
		return cli.checkStore(ctx)
	case "testemail":
		if err := testEmailCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *testEmailTo == "" {
			testEmailCmd.Usage()
			return errHelp
		}
		return cli.testEmail(ctx, *testEmailTo)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// checkPassword applies the console's password policy.
func checkPassword(pwd string, attrs ...string) error {
	if tag := core.PasswordViolation(pwd, attrs...); tag != "" {
		return errors.New(core.PasswordViolationText(tag))
	}
	return nil
}

func (cli *commandLine) checkStore(ctx context.Context) error {
	if err := cli.app.CheckStore(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "store %q is ready\n", cli.app.Conf.Store.Driver)
	return nil
}

func (cli *commandLine) testEmail(ctx context.Context, to string) error {
	res := emailsvc.TestConfiguration(ctx, cli.app.Mail, cli.app.Conf, core.CleanString(to, true /* lower */))
	if !res.Success {
		return errors.New(res.Message)
	}
	fmt.Fprintln(cli.out, res.Message)
	return nil
}
