package main

import (
	"os"
)

func main() {
	a := newApp(os.Stdout)
	err := newRootCmd(a).Execute()
	// PersistentPostRun is skipped when a command fails.
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
