package habits

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/api"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

type StatsCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	JSON  bool   `help:"Print machine-readable JSON."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	st, err := ctx.Tracker.Stats(bg, habit.ID)
	if err != nil {
		return err
	}

	if c.JSON {
		out, err := json.MarshalIndent(api.NewStatsResponse(st), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		ctx.Println(string(out))
		return nil
	}

	ctx.Printf("%s as of %s\n\n", cli.TitleStyle.Render(habit.Name), utils.FormatDate(st.AsOf))
	row := func(label, value string) {
		ctx.Printf("  %s%s\n", cli.LabelStyle.Render(label), value)
	}
	printStats(st, row)
	if len(st.UncompletedDays) > 0 {
		row("Missed:", joinDates(st.UncompletedDays))
	}
	return nil
}

func joinDates(days []time.Time) string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = utils.FormatDate(d)
	}
	return strings.Join(out, ", ")
}

type ProgressCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Any day inside the period (default: today)." default:""`
}

func (c *ProgressCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	p, err := ctx.Tracker.Progress(bg, habit.ID, day)
	if err != nil {
		return err
	}
	if p == nil {
		ctx.Printf("%s has no period progress on %s.\n", habit.Name, utils.FormatDate(day))
		return nil
	}
	ctx.Printf("%s: %d/%d (%s)\n", habit.Name, p.Completed, p.Planned, cli.FormatFrequency(habit))
	return nil
}

type TodayCmd struct {
	Date string `help:"Show another day instead of today." default:""`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	items, err := ctx.Tracker.HabitsAtDay(context.Background(), day)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		ctx.Printf("No habits scheduled for %s.\n", utils.FormatDate(day))
		return nil
	}

	ctx.Printf("Habits for %s:\n\n", utils.FormatDate(day))
	recorded := 0
	for _, item := range items {
		if item.IsCompleted {
			recorded++
		}
		line := fmt.Sprintf("%s %s", cli.Check(item.IsCompleted), item.Habit.Name)
		if item.Progress != nil {
			line += fmt.Sprintf("  %d/%d", item.Progress.Completed, item.Progress.Planned)
		}
		if item.IsPhotoUploaded {
			line += "  (photo)"
		}
		ctx.Println(line)
	}
	ctx.Printf("\nRecorded: %d/%d\n", recorded, len(items))
	return nil
}

type LogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for a specific habit only."`
}

const logNameWidth = 20

func (c *LogCmd) Run(ctx *cli.Context) error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	bg := context.Background()

	var selected []models.Habit
	if c.Habit != "" {
		habit, err := ctx.Tracker.FindHabit(bg, c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{habit}
	} else {
		habits, err := ctx.Tracker.ListHabits(bg, false)
		if err != nil {
			return err
		}
		selected = habits
	}

	if len(selected) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	endDay := ctx.Tracker.Today()
	startDay := utils.AddDays(endDay, -(c.Days - 1))

	ctx.Printf("Habit log (last %d days):\n\n", c.Days)
	header := strings.Repeat(" ", logNameWidth)
	for i := 0; i < c.Days; i++ {
		header += fmt.Sprintf(" %5s", utils.AddDays(startDay, i).Format("01/02"))
	}
	ctx.Println(header)
	ctx.Println(strings.Repeat("-", logNameWidth+6*c.Days))

	for _, habit := range selected {
		line, err := c.logLine(ctx, habit, startDay)
		if err != nil {
			return err
		}
		ctx.Println(line)
	}
	ctx.Println()
	ctx.Println("x done   . missed or open   blank not scheduled")
	return nil
}

func (c *LogCmd) logLine(ctx *cli.Context, habit models.Habit, startDay time.Time) (string, error) {
	rule, err := recurrence.NewRule(habit)
	if err != nil {
		return "", err
	}
	reports, err := ctx.Tracker.History(context.Background(), habit.ID, startDay, utils.AddDays(startDay, c.Days-1))
	if err != nil {
		return "", err
	}
	done := make(map[string]bool, len(reports))
	for _, r := range reports {
		done[utils.FormatDate(r.Date)] = true
	}

	var b strings.Builder
	b.WriteString(padName(habit.Name))
	for i := 0; i < c.Days; i++ {
		day := utils.AddDays(startDay, i)
		switch {
		case done[utils.FormatDate(day)]:
			b.WriteString("   x  ")
		case rule.IsScheduled(day):
			b.WriteString("   .  ")
		default:
			b.WriteString("      ")
		}
	}
	return b.String(), nil
}

func padName(name string) string {
	r := []rune(name)
	if len(r) > logNameWidth {
		return string(r[:logNameWidth-3]) + "..."
	}
	return name + strings.Repeat(" ", logNameWidth-len(r))
}
