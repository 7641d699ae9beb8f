package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/api"
	"github.com/julianstephens/habitual/internal/cli"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on." default:"${listen_addr}"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Serving habitual API on %s (Ctrl+C to stop)\n", cmd.Addr)
	return api.New(ctx.Tracker).ListenAndServe(sigCtx, cmd.Addr)
}
