/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Global initial configuration of the forwarder.
// This configuration is IMMUTABLE. Do not modify it.
var C = DefaultConfig()

// Config represents the configuration of the forwarder.
type Config struct {
	Core struct {
		// Logging level
		LogLevel string `json:"log_level"`
		// Output log to file
		LogFile string `json:"log_file"`
		// Multicast engine to run
		Engine string `json:"engine"`

		// Config file base dir
		BaseDir string `json:"-"`
		// Enable CPU profiling
		CpuProfile string `json:"-"`
		// Enable memory profiling
		MemProfile string `json:"-"`
	} `json:"core"`

	Engine struct {
		// Number of sliding windows: how many distinct (seed, M)
		// streams may be tracked at once
		Wins int `json:"wins"`
		// Number of buffered multicast datagrams, shared by all seeds
		BuffNum int `json:"buff_num"`
		// Largest datagram the engine will cache or originate
		Mtu int `json:"mtu"`
		// Use 16-bit seed ids carried in the HBH option instead of
		// the 128-bit source address
		ShortSeeds bool `json:"short_seeds"`
		// Advertise to link-local all-nodes instead of all-routers
		DestAllNodes bool `json:"dest_all_nodes"`
		// Set the M bit on datagrams we originate
		SetMBit bool `json:"set_m_bit"`
		// ICMPv6 code for trickle multicast messages
		IcmpCode uint8 `json:"icmp_code"`
		// Fixed hop limit on trickle multicast control messages
		HopLimit uint8 `json:"hop_limit"`
		// Size of the engine's ingress queues
		QueueSize int `json:"queue_size"`
	} `json:"engine"`

	Timers struct {
		// Parametrization M=0
		Aggressive TimerConfig `json:"aggressive"`
		// Parametrization M=1
		Conservative TimerConfig `json:"conservative"`
	} `json:"timers"`

	Faces struct {
		// Ticks of the engine clock per second
		TickHz uint64 `json:"tick_hz"`

		Udp struct {
			// Whether to enable the UDP mesh tunnel
			Enabled bool `json:"enabled"`
			// Tunnel group address
			Group string `json:"group"`
			// Tunnel port
			Port uint16 `json:"port"`
		} `json:"udp"`

		WebSocket struct {
			// Whether to enable the WebSocket tunnel listener
			Enabled bool `json:"enabled"`
			// Bind address for the listener
			Bind string `json:"bind"`
			// Port for the listener
			Port uint16 `json:"port"`
		} `json:"websocket"`

		// Link-local unicast address of this node on the mesh
		LinkLocal string `json:"link_local"`
		// Link-layer address, used for short seed ids
		LinkAddress string `json:"link_address"`
	} `json:"faces"`

	Mgmt struct {
		// Whether to expose the HTTP status endpoint
		Enabled bool `json:"enabled"`
		// Bind address for the status endpoint
		Bind string `json:"bind"`
		// Port for the status endpoint
		Port uint16 `json:"port"`
	} `json:"mgmt"`
}

// TimerConfig is the configuration of one trickle parametrization.
type TimerConfig struct {
	// Minimum interval, clock ticks
	IMin uint64 `json:"imin"`
	// Maximum number of interval doublings
	IMax uint8 `json:"imax"`
	// Redundancy constant; 255 disables suppression
	K uint8 `json:"k"`
	// Active budget as a multiple of Imax
	TActive uint8 `json:"t_active"`
	// Dwell budget as a multiple of Imax
	TDwell uint8 `json:"t_dwell"`
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Core.LogLevel = "INFO"
	c.Core.LogFile = ""
	c.Core.Engine = "trickle"
	c.Core.BaseDir = ""
	c.Core.CpuProfile = ""
	c.Core.MemProfile = ""

	c.Engine.Wins = 2
	c.Engine.BuffNum = 6
	c.Engine.Mtu = 1280
	c.Engine.ShortSeeds = false
	c.Engine.DestAllNodes = false
	c.Engine.SetMBit = true
	c.Engine.IcmpCode = 0
	c.Engine.HopLimit = 0xFF
	c.Engine.QueueSize = 64

	c.Timers.Aggressive = TimerConfig{IMin: 32, IMax: 1, K: 0xFF, TActive: 3, TDwell: 11}
	c.Timers.Conservative = TimerConfig{IMin: 64, IMax: 9, K: 1, TActive: 3, TDwell: 12}

	c.Faces.TickHz = 128
	c.Faces.Udp.Enabled = true
	c.Faces.Udp.Group = "239.66.66.66"
	c.Faces.Udp.Port = 46464
	c.Faces.WebSocket.Enabled = false
	c.Faces.WebSocket.Bind = ""
	c.Faces.WebSocket.Port = 9697
	c.Faces.LinkLocal = ""
	c.Faces.LinkAddress = ""

	c.Mgmt.Enabled = false
	c.Mgmt.Bind = "127.0.0.1"
	c.Mgmt.Port = 8484

	return c
}

// LoadConfig reads a YAML configuration file into dest, strictly.
func LoadConfig(dest *Config, file string) {
	f, err := os.Open(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open configuration file: %+v\n", err)
		os.Exit(3)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())
	if err = dec.Decode(dest); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse configuration file: %+v\n", err)
		os.Exit(3)
	}
}

// ResolveRelPath resolves a possibly relative path based on config file path.
func (c *Config) ResolveRelPath(target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(c.Core.BaseDir, target)
}
