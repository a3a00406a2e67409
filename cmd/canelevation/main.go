// Command canelevation generates STAC Collections and Items for the NRCan
// CanElevation point-cloud series.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"canelevation/cmd/canelevation/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
