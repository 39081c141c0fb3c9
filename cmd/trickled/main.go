/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"os"

	"github.com/roll-mcast/trickled/executor"
)

func main() {
	if err := executor.CmdTrickled.Execute(); err != nil {
		os.Exit(1)
	}
}
