package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit and its statistics."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit (soft delete)."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `short:"D" help:"Optional description."`
	Frequency   string `short:"f" help:"Frequency: days (fixed weekdays), weekly or monthly (X times per period)." default:"days"`
	Days        string `short:"w" help:"Comma-separated weekdays for the days frequency (e.g. mon,wed,fri)."`
	Times       int    `short:"t" help:"Target completions per period for the weekly and monthly frequencies."`
	Photo       bool   `help:"Allow a photo URL on completions."`
	Harmful     bool   `help:"Mark as a habit to break (days frequency only)."`
	Duration    int    `short:"d" help:"Number of active days counted from today (0 for no end)."`
}

func (c *HabitAddCmd) input() (tracker.HabitInput, error) {
	freq, err := cli.ParseFrequency(c.Frequency)
	if err != nil {
		return tracker.HabitInput{}, err
	}
	in := tracker.HabitInput{
		Name:           c.Name,
		Description:    c.Description,
		FrequencyType:  freq,
		IsPhotoAllowed: c.Photo,
		IsHarmful:      c.Harmful,
	}
	switch freq {
	case models.FrequencyWeeklyOnDays:
		if c.Days == "" {
			return tracker.HabitInput{}, fmt.Errorf("--days is required for the days frequency")
		}
		days, err := utils.ParseWeekdays(c.Days)
		if err != nil {
			return tracker.HabitInput{}, err
		}
		in.DaysOfWeek = days
	case models.FrequencyWeeklyXTimes:
		in.TimesPerWeek = c.Times
	case models.FrequencyMonthlyXTimes:
		in.TimesPerMonth = c.Times
	}
	if c.Duration < 0 {
		return tracker.HabitInput{}, fmt.Errorf("duration must not be negative")
	}
	if c.Duration > 0 {
		d := c.Duration
		in.DurationDays = &d
	}
	return in, nil
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	in, err := c.input()
	if err != nil {
		return err
	}
	habit, err := ctx.Tracker.CreateHabit(context.Background(), in)
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s)\n", habit.Name, cli.FormatFrequency(habit))
	ctx.Printf("ID: %s\n", habit.ID)
	return nil
}

type HabitListCmd struct {
	Deleted bool `help:"Include deleted habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Tracker.ListHabits(context.Background(), c.Deleted)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, habit := range habits {
		status := ""
		if habit.DeletedAt != nil {
			status = " " + cli.DangerStyle.Render("[DELETED]")
		}
		ctx.Printf("%s  %s%s\n", cli.LabelStyle.Render(habit.Name), cli.FormatFrequency(habit), status)
	}
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	st, err := ctx.Tracker.Stats(bg, habit.ID)
	if err != nil {
		return err
	}

	ctx.Println(cli.TitleStyle.Render(habit.Name))
	if habit.Description != "" {
		ctx.Println(habit.Description)
	}
	ctx.Println()
	row := func(label, value string) {
		ctx.Printf("  %s%s\n", cli.LabelStyle.Render(label), value)
	}
	row("ID:", habit.ID)
	row("Schedule:", cli.FormatFrequency(habit))
	row("Active:", cli.FormatWindow(habit))
	row("Photo allowed:", fmt.Sprintf("%t", habit.IsPhotoAllowed))
	if habit.IsHarmful {
		row("Harmful:", cli.WarningStyle.Render("yes"))
	}
	printStats(st, row)
	return nil
}

func printStats(st models.HabitStats, row func(label, value string)) {
	row("Completions:", fmt.Sprintf("%d", st.CompletionsInTotal))
	if st.CompletionsPercent != nil || st.CurrentStreak != nil {
		row("Completion rate:", cli.FormatOptionalInt(st.CompletionsPercent, "%"))
		row("Current streak:", cli.FormatOptionalInt(st.CurrentStreak, ""))
	}
	if st.Progress != nil {
		row("This period:", fmt.Sprintf("%d/%d", st.Progress.Completed, st.Progress.Planned))
	}
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit name or ID."`
	Description *string `short:"D" help:"New description."`
	Harmful     *bool   `help:"Set the harmful flag."`
	Duration    *int    `short:"d" help:"New number of active days (0 removes the end)."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	if c.Duration != nil && *c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}

	habit, err = ctx.Tracker.EditHabit(bg, habit.ID, tracker.HabitEdit{
		Description:  c.Description,
		IsHarmful:    c.Harmful,
		DurationDays: c.Duration,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit: %s\n", habit.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.DeleteHabit(bg, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Name)
	ctx.Println("(This is a soft delete. Its completion history is kept.)")
	return nil
}
