package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, "trickle", c.Core.Engine)
	assert.Equal(t, 2, c.Engine.Wins)
	assert.Equal(t, 6, c.Engine.BuffNum)
	assert.False(t, c.Engine.ShortSeeds)
	assert.False(t, c.Engine.DestAllNodes)
	assert.True(t, c.Engine.SetMBit)
	assert.Equal(t, uint8(0xFF), c.Engine.HopLimit)

	// Aggressive M=0, conservative M=1.
	assert.Equal(t, uint64(32), c.Timers.Aggressive.IMin)
	assert.Equal(t, uint8(0xFF), c.Timers.Aggressive.K, "suppression off by default on M=0")
	assert.Equal(t, uint64(64), c.Timers.Conservative.IMin)
	assert.Equal(t, uint8(9), c.Timers.Conservative.IMax)
	assert.Equal(t, uint8(1), c.Timers.Conservative.K)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "trickled.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
core:
  log_level: DEBUG
  engine: trickle
engine:
  wins: 4
  buff_num: 8
  short_seeds: true
timers:
  aggressive:
    imin: 100
    imax: 4
    k: 2
    t_active: 3
    t_dwell: 5
`), 0o644))

	c := DefaultConfig()
	LoadConfig(c, file)

	assert.Equal(t, "DEBUG", c.Core.LogLevel)
	assert.Equal(t, 4, c.Engine.Wins)
	assert.Equal(t, 8, c.Engine.BuffNum)
	assert.True(t, c.Engine.ShortSeeds)
	assert.Equal(t, uint64(100), c.Timers.Aggressive.IMin)
	assert.Equal(t, uint8(2), c.Timers.Aggressive.K)

	// Untouched sections keep their defaults.
	assert.Equal(t, uint64(64), c.Timers.Conservative.IMin)
	assert.Equal(t, uint16(46464), c.Faces.Udp.Port)
}

func TestResolveRelPath(t *testing.T) {
	c := DefaultConfig()
	c.Core.BaseDir = "/etc/trickled"
	assert.Equal(t, "/etc/trickled/certs", c.ResolveRelPath("certs"))
	assert.Equal(t, "/abs", c.ResolveRelPath("/abs"))
}
