package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Tracker
	Config  config.Config
	Out     io.Writer
}

func (c *Context) writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.writer(), args...)
}

// PerformAutomaticBackup snapshots a SQLite database before a destructive
// command. Failures are logged and never stop the command.
func (c *Context) PerformAutomaticBackup() {
	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		return
	}
	if _, err := os.Stat(store.GetConfigPath()); err != nil {
		return
	}
	if _, err := backup.NewManager(store.GetConfigPath()).Create(context.Background()); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDay accepts YYYY-MM-DD, "today" or "yesterday". An empty string means
// today in the tracker's timezone.
func (c *Context) ParseDay(s string) (time.Time, error) {
	today := c.Tracker.Today()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.AddDays(today, -1), nil
	}
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// FormatFrequency renders a habit's schedule, e.g. "Mon, Wed" or "3x per week".
func FormatFrequency(h models.Habit) string {
	switch h.FrequencyType {
	case models.FrequencyWeeklyOnDays:
		return utils.FormatWeekdays(h.DaysOfWeek)
	case models.FrequencyWeeklyXTimes:
		return fmt.Sprintf("%dx per week", h.TimesPerWeek)
	case models.FrequencyMonthlyXTimes:
		return fmt.Sprintf("%dx per month", h.TimesPerMonth)
	default:
		return string(h.FrequencyType)
	}
}

// FormatWindow renders the active window of a habit.
func FormatWindow(h models.Habit) string {
	start := utils.FormatDate(utils.DateOf(h.CreatedAt))
	if h.DurationDays == nil {
		return start + " onwards"
	}
	end := utils.AddDays(utils.DateOf(h.CreatedAt), *h.DurationDays-1)
	return fmt.Sprintf("%s to %s (%d days)", start, utils.FormatDate(end), *h.DurationDays)
}

// FormatOptionalInt renders nil as "n/a".
func FormatOptionalInt(v *int, suffix string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d%s", *v, suffix)
}

// ParseFrequency accepts the stored names as well as the short forms
// "days", "weekly" and "monthly".
func ParseFrequency(s string) (models.FrequencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "days", "on_days", strings.ToLower(string(models.FrequencyWeeklyOnDays)):
		return models.FrequencyWeeklyOnDays, nil
	case "weekly", strings.ToLower(string(models.FrequencyWeeklyXTimes)):
		return models.FrequencyWeeklyXTimes, nil
	case "monthly", strings.ToLower(string(models.FrequencyMonthlyXTimes)):
		return models.FrequencyMonthlyXTimes, nil
	}
	return "", fmt.Errorf("invalid frequency: %s (expected days, weekly or monthly)", s)
}
