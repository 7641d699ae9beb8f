package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
)

type MigrateCmd struct {
	Status bool `help:"Show the schema version and pending migrations without applying them."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	if c.Status {
		st, err := ctx.Store.SchemaStatus(bg)
		if err != nil {
			return fmt.Errorf("failed to read schema status: %w", err)
		}
		ctx.Printf("Current version: %d\n", st.Current)
		ctx.Printf("Latest version:  %d\n", st.Latest)
		for _, m := range st.Pending {
			ctx.Printf("  pending: %03d_%s\n", m.Version, m.Name)
		}
		return nil
	}

	count, err := ctx.Store.Migrate(bg, func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
