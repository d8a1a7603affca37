// Command iepforge runs the Assessment-to-IEP generation pipeline's HTTP
// ingress server.
package main

import (
	"math/rand"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/brightpath-edu/iepforge/internal/app"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	_, _ = maxprocs.Set(maxprocs.Logger(logger.Info))

	app.NewApp("iepforge").Run()
}
