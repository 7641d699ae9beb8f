package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show a stored secret with its password masked."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
	Status KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
}

// KeyringSetCmd stores a credential-bearing connection string in the OS keyring
type KeyringSetCmd struct {
	Key    string `arg:"" enum:"database-connection,amqp-url" help:"Entry to set: database-connection or amqp-url."`
	Secret string `arg:"" help:"Connection string or URL to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	switch cmd.Key {
	case constants.KeyringDBConnection:
		if !postgres.IsConnString(cmd.Secret) && !strings.Contains(cmd.Secret, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if err := postgres.ValidateConnString(cmd.Secret); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
	case constants.KeyringAMQPURL:
		if !strings.HasPrefix(cmd.Secret, "amqp://") && !strings.HasPrefix(cmd.Secret, "amqps://") {
			return errors.New("AMQP url must start with amqp:// or amqps://")
		}
	}

	if err := keyring.Set(cmd.Key, cmd.Secret); err != nil {
		return err
	}

	ctx.Printf("✓ %s stored successfully in OS keyring\n", cmd.Key)
	switch cmd.Key {
	case constants.KeyringDBConnection:
		ctx.Println("  Use it with --db=keyring or HABITUAL_DB=keyring")
	case constants.KeyringAMQPURL:
		ctx.Println("  Use it with --amqp-url=keyring or HABITUAL_AMQP_URL=keyring")
	}
	return nil
}

type KeyringGetCmd struct {
	Key string `arg:"" enum:"database-connection,amqp-url" help:"Entry to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	secret, err := keyring.Get(cmd.Key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'habitual keyring set %s' to store one", cmd.Key, cmd.Key)
		}
		return err
	}
	ctx.Println(maskPassword(secret))
	return nil
}

type KeyringDeleteCmd struct {
	Key string `arg:"" enum:"database-connection,amqp-url" help:"Entry to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(cmd.Key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", cmd.Key)
		}
		return err
	}
	ctx.Printf("✓ %s deleted from OS keyring\n", cmd.Key)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")
	for _, key := range keyring.Keys {
		if _, ok := keyring.Lookup(key); ok {
			ctx.Printf("✓ %s is stored\n", key)
		} else {
			ctx.Printf("ℹ No %s stored\n", key)
		}
	}
	return nil
}

// maskPassword hides the password of URL-form connection strings and of
// key=value DSNs.
func maskPassword(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil || u.User == nil {
			return connStr
		}
		if _, ok := u.User.Password(); !ok {
			return connStr
		}
		u.User = url.UserPassword(u.User.Username(), "xxxx")
		return u.String()
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
