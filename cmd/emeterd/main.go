package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/env"
	"github.com/robotalks/emeter.go/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	var clock framework.TickCounter
	e := env.NewConfig().MustNewEnv(&clock)
	defer e.Close()

	loop := framework.NewLoop(&clock).Add(e)
	err := framework.NewRunner().
		HandleSignals().
		Go(framework.NewTicker(&clock), loop).
		Wait()
	glog.Infof("stopped: %v", err)
	glog.Info(Summary(e.Counters))
}

// Summary formats the diagnostics counters logged on exit.
func Summary(c *emeter.Counters) string {
	return fmt.Sprintf("%d lines rejected, %d buffer overflows, %d frames sent, %d transmit failures",
		c.Rejected.Load(), c.Overflows.Load(), c.Frames.Load(), c.TxFailures.Load())
}
