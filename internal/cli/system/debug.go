package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitual/internal/api"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" help:"Show database path."`
	LogPath   DebugLogPathCmd   `cmd:"" help:"Show log file path."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump a habit and its completion reports as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugLogPathCmd struct{}

func (cmd *DebugLogPathCmd) Run(ctx *cli.Context) error {
	path := logger.Path()
	if path == "" {
		return fmt.Errorf("logging is not initialized")
	}
	return printJSON(ctx, map[string]string{"path": path})
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

type habitDump struct {
	Habit   api.HabitResponse         `json:"habit"`
	Reports []models.CompletionReport `json:"reports"`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.FindHabit(bg, cmd.Habit)
	if err != nil {
		return err
	}
	reports, err := ctx.Store.GetCompletionsInRange(bg, habit.ID, firstDay, lastDay)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []models.CompletionReport{}
	}
	return printJSON(ctx, habitDump{Habit: api.NewHabitResponse(habit), Reports: reports})
}

func printJSON(ctx *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(out))
	return nil
}
