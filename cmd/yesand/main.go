// yesand is a terminal scene partner for "yes, and" improv.
package main

import (
	"os"

	"github.com/wethinkt/go-yesand/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
