package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[energy-estimator] Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the gRPC status of err onto a process exit code so scripts
// can tell bad input from unsupported values and bad configuration.
func exitCode(err error) int {
	switch status.Code(err) {
	case codes.OK:
		return 0
	case codes.InvalidArgument:
		return 3
	case codes.NotFound:
		return 4
	case codes.FailedPrecondition:
		return 5
	default:
		return 1
	}
}
