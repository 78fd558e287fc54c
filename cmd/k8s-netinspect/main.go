package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/component-base/logs"
)

func main() {
	logs.InitLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], newRootOptions(os.Stdout, os.Stderr))
	cancel()
	logs.FlushLogs()
	os.Exit(code)
}
