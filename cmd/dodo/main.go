package main

import (
	"context"
	"fmt"
	"os"
)

// exit is replaced in tests.
var exit = os.Exit

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	exit(1)
}

type closer interface {
	Close(ctx context.Context) error
}

// fail releases b before exiting, since deferred calls do not run on exit.
func fail(b closer, msg string, err error) {
	if cerr := b.Close(context.Background()); cerr != nil {
		fmt.Fprintf(os.Stderr, "Failed to close store: %v\n", cerr)
	}
	fatal(msg, err)
}
