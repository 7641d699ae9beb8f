package habits

import (
	"context"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/utils"
)

type MarkCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date in YYYY-MM-DD format, 'today' or 'yesterday' (default: today)." default:""`
	Photo string `help:"Optional photo URL for habits that allow photos."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}

	var photo *string
	if c.Photo != "" {
		photo = &c.Photo
	}
	if _, err := ctx.Tracker.MarkCompleted(bg, habit.ID, day, photo); err != nil {
		return err
	}
	ctx.Printf("%s Marked habit %q for %s\n", cli.Check(true), habit.Name, utils.FormatDate(day))
	return nil
}

type UnmarkCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date in YYYY-MM-DD format, 'today' or 'yesterday' (default: today)." default:""`
}

func (c *UnmarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.Unmark(bg, habit.ID, day); err != nil {
		return err
	}
	ctx.Printf("%s Unmarked habit %q for %s\n", cli.Check(false), habit.Name, utils.FormatDate(day))
	return nil
}

type PhotoCmd struct {
	Set   PhotoSetCmd   `cmd:"" help:"Attach a photo URL to a completion."`
	Clear PhotoClearCmd `cmd:"" help:"Remove the photo from a completion."`
}

type PhotoSetCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	URL   string `arg:"" help:"Photo URL."`
	Date  string `help:"Date of the completion (default: today)." default:""`
}

func (c *PhotoSetCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.SetPhoto(bg, habit.ID, day, c.URL); err != nil {
		return err
	}
	ctx.Printf("Photo set for %q on %s\n", habit.Name, utils.FormatDate(day))
	return nil
}

type PhotoClearCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date of the completion (default: today)." default:""`
}

func (c *PhotoClearCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.ClearPhoto(bg, habit.ID, day); err != nil {
		return err
	}
	ctx.Printf("Photo cleared for %q on %s\n", habit.Name, utils.FormatDate(day))
	return nil
}
