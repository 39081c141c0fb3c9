/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/utils"
)

var config = core.DefaultConfig()

var CmdTrickled = &cobra.Command{
	Use:     "trickled CONFIG-FILE",
	Short:   "Trickle Multicast Forwarding Daemon",
	Version: utils.Version,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

func init() {
	CmdTrickled.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	CmdTrickled.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "Write memory profile to file")
}

func run(cmd *cobra.Command, args []string) {
	configfile := args[0]
	config.Core.BaseDir = filepath.Dir(configfile)

	core.LoadConfig(config, configfile)

	trickled := NewTrickled(config)
	trickled.Start()

	// set up signal handler channel and wait for interrupt
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-sigChannel
	core.Log.Info(trickled, "Received signal - exit", "signal", receivedSig)

	trickled.Stop()
}
