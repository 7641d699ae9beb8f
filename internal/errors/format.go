package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

// Format renders err for the terminal with an "Error: " prefix.
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Hint suggests the command that resolves err, or "" when there is none.
func Hint(err error) string {
	var nf *NotFoundError
	switch {
	case stderrors.As(err, &nf) && nf.Kind == "habit":
		return fmt.Sprintf("Run '%s habit list' to see your habits.", constants.AppName)
	case stderrors.As(err, &nf) && nf.Kind == "completion":
		return fmt.Sprintf("Run '%s log' to see recorded days.", constants.AppName)
	case stderrors.Is(err, ErrDuplicateCompletion):
		return fmt.Sprintf("Run '%s unmark' first to record the day again.", constants.AppName)
	case stderrors.Is(err, ErrAlreadyExists):
		return fmt.Sprintf("Run '%s habit list --deleted' to check existing names.", constants.AppName)
	}
	return ""
}

// Report writes err and its hint to w and logs it with its kind.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err, "kind", Kind(err))
	fmt.Fprintln(w, Format(err))
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
}

// Fatal reports err on stderr and exits with status 1. A nil err is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	Report(os.Stderr, err)
	os.Exit(1)
}
