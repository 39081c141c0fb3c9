/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"os"

	"github.com/roll-mcast/trickled/log"
)

var Log = log.Default()
var logFileObj *os.File

// OpenLogger initializes the logger.
func OpenLogger() {
	// open file if filename is not empty
	if C.Core.LogFile == "" {
		logFileObj = os.Stderr
	} else {
		var err error
		logFileObj, err = os.Create(C.Core.LogFile)
		if err != nil {
			panic(err)
		}
	}

	Log = log.NewText(logFileObj)

	level, err := log.ParseLevel(C.Core.LogLevel)
	if err != nil {
		panic(err)
	}
	Log.SetLevel(level)
}

// CloseLogger shuts down the logger.
func CloseLogger() {
	if logFileObj != nil {
		logFileObj.Close()
	}
}
