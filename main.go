package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/refdelta/refdelta-go/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.App().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
