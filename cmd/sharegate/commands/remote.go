package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/internal/cli/prompt"
	"github.com/marmos91/sharegate/pkg/config"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

// remoteFlags are the credential flags shared by ls and get.
type remoteFlags struct {
	user     string
	password string
	noPrompt bool
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "", `User name, optionally as DOMAIN\user`)
	cmd.Flags().StringVar(&f.password, "password", "", "Password (prompted for when --user is set)")
	cmd.Flags().BoolVar(&f.noPrompt, "no-prompt", false, "Never prompt; use an empty password")
}

// credentials builds share credentials from the flags, prompting for the
// password when a user was given without one.
func (f *remoteFlags) credentials() (remotefs.Credentials, error) {
	var creds remotefs.Credentials
	if f.user == "" {
		return creds, nil
	}

	creds.User = f.user
	if domain, user, ok := strings.Cut(f.user, `\`); ok {
		creds.Domain, creds.User = domain, user
	}

	creds.Password = f.password
	if creds.Password == "" && !f.noPrompt {
		pw, err := prompt.Password(fmt.Sprintf("Password for %s", f.user))
		if err != nil {
			return creds, err
		}
		creds.Password = pw
	}
	return creds, nil
}

// remoteTarget is a resolved command-line target.
type remoteTarget struct {
	cfg  *config.Config
	file remotefs.File
	sess remotefs.Session
}

func (t *remoteTarget) Close() {
	_ = t.sess.Close()
}

// openRemote resolves target through a registry built from the
// configuration. Close releases the session.
func openRemote(ctx context.Context, target string, flags *remoteFlags) (*remoteTarget, error) {
	initClientLogger()

	loc, err := remotefs.ParseLocation(target)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}

	reg, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	creds, err := flags.credentials()
	if err != nil {
		return nil, err
	}

	sess, err := reg.Connect(ctx, loc, creds)
	if err != nil {
		return nil, err
	}

	f, err := sess.Stat(ctx, loc)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	return &remoteTarget{cfg: cfg, file: f, sess: sess}, nil
}
