/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/roll-mcast/trickled/core"
)

type Profiler struct {
	config  *core.Config
	cpuFile *os.File
}

func NewProfiler(config *core.Config) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string {
	return "profiler"
}

// Start begins CPU profiling if configured.
func (p *Profiler) Start() (err error) {
	if p.config.Core.CpuProfile != "" {
		p.cpuFile, err = os.Create(p.config.Core.CpuProfile)
		if err != nil {
			core.Log.Fatal(p, "Unable to open output file for CPU profile", "err", err)
		}

		core.Log.Info(p, "Profiling CPU", "out", p.config.Core.CpuProfile)
		pprof.StartCPUProfile(p.cpuFile)
	}

	return
}

// Stop writes out the configured profiles.
func (p *Profiler) Stop() {
	if p.config.Core.MemProfile != "" {
		memProfileFile, err := os.Create(p.config.Core.MemProfile)
		if err != nil {
			core.Log.Fatal(p, "Unable to open output file for memory profile", "err", err)
		}
		defer memProfileFile.Close()

		core.Log.Info(p, "Profiling memory", "out", p.config.Core.MemProfile)
		runtime.GC()
		if err := pprof.WriteHeapProfile(memProfileFile); err != nil {
			core.Log.Fatal(p, "Unable to write memory profile", "err", err)
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}
