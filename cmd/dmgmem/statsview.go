package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsviewAddress = "localhost:12600"

// launchStatsview serves runtime charts for the process on its own
// goroutine. It only reads runtime stats, never emulator state.
func launchStatsview(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s/debug/statsview\n", statsviewAddress)
}
