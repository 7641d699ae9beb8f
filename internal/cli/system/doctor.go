package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/cache"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/events"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name string
	// skip reports why the check cannot run, or "" to run it
	skip func() string
	run  func(ctx context.Context) error
	// warn turns a failure into a warning
	warn bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg := context.Background()
	dbReachable := false
	notReachable := func() string {
		if !dbReachable {
			return "database not reachable"
		}
		return ""
	}

	checks := []check{
		{name: "Database reachable", run: func(c context.Context) error {
			if _, err := ctx.Store.SchemaStatus(c); err != nil {
				return err
			}
			dbReachable = true
			return nil
		}},
		{name: "Migrations complete", skip: notReachable, run: func(c context.Context) error {
			return checkMigrationsComplete(c, ctx)
		}},
		{name: "Habit integrity", skip: notReachable, run: func(c context.Context) error {
			return checkHabitsIntegrity(c, ctx)
		}},
		{name: "Clock/timezone", run: func(context.Context) error {
			return checkClockTimezone(ctx.Config.Timezone)
		}},
		{name: "Stats cache", skip: func() string {
			if ctx.Config.RedisURL == "" {
				return "no shared cache, stats computed per request"
			}
			return ""
		}, run: func(c context.Context) error {
			sc, err := cache.NewRedis(c, ctx.Config.RedisURL)
			if err != nil {
				return err
			}
			return sc.Close()
		}},
		{name: "Event broker", skip: func() string {
			if ctx.Config.AMQPURL == "" {
				return "events disabled"
			}
			return ""
		}, run: func(context.Context) error {
			url, err := config.ResolveAMQPURL(ctx.Config.AMQPURL, keyring.Lookup)
			if err != nil {
				return err
			}
			pub, err := events.New(url, ctx.Config.AMQPQueue)
			if err != nil {
				return err
			}
			return pub.Close()
		}},
		{name: "OS keyring", warn: true, run: func(context.Context) error {
			if !keyring.IsAvailable() {
				return keyring.ErrKeyringUnavailable
			}
			return nil
		}},
	}

	hasError := false
	for _, chk := range checks {
		if chk.skip != nil {
			if reason := chk.skip(); reason != "" {
				ctx.Printf("⊘ %s: SKIPPED (%s)\n", chk.name, reason)
				continue
			}
		}
		err := chk.run(bg)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", chk.name)
		case chk.warn:
			ctx.Printf("⚠ %s: WARNING\n", chk.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", chk.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkMigrationsComplete(bg context.Context, ctx *cli.Context) error {
	st, err := ctx.Store.SchemaStatus(bg)
	if err != nil {
		return err
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("schema is at version %d, %d pending migration(s) up to %d: run 'habitual migrate'", st.Current, len(st.Pending), st.Latest)
	}
	return nil
}

// checkHabitsIntegrity verifies every stored habit still has a valid rule and
// that no two live habits share a name.
func checkHabitsIntegrity(bg context.Context, ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(bg, false)
	if err != nil {
		return err
	}
	seen := make(map[string]string, len(habits))
	var problems []string
	for _, h := range habits {
		if _, err := recurrence.NewRule(h); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", h.Name, err))
		}
		if other, ok := seen[h.Name]; ok {
			problems = append(problems, fmt.Sprintf("%s: duplicate name (also %s)", h.Name, other))
		}
		seen[h.Name] = h.ID
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}
	return nil
}

func checkClockTimezone(timezone string) error {
	if !utils.ValidateTimezone(timezone) {
		return fmt.Errorf("invalid timezone %q", timezone)
	}
	now, err := utils.NowInTimezone(timezone)
	if err != nil {
		return err
	}
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}
