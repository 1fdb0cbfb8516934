package main

import (
	"fmt"
	"os"

	"github.com/dc0d/onexit"

	"github.com/dc5v/tictacdb/pkg/tictacdb"
)

func main() {
	instance, err := tictacdb.NewInstance("tictacdb")
	if err != nil {
		fmt.Fprintf(os.Stderr, "tictacdb: %v\n", err)
		os.Exit(1)
	}

	// Drain workers and the statistics queue on SIGINT/SIGTERM.
	onexit.Register(func() { instance.Close() })

	if err := instance.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "tictacdb: %v\n", err)
		os.Exit(1)
	}
}
