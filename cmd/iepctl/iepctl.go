// Command iepctl is the operator CLI for the iepforge ingress server.
package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/brightpath-edu/iepforge/internal/iepctl/cmd"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	command := cmd.NewDefaultIepctlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
