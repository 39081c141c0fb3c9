/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "time"

// StartTimestamp is the time the forwarder was started.
var StartTimestamp time.Time

// ShouldQuit indicates whether long-running loops should quit
var ShouldQuit = false
