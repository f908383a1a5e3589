package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHexWritesDataRecord(t *testing.T) {
	e := NewEngine()
	// :03000000 AABBCC 9C  (data record, 3 bytes at 0x0000)
	src := ":03000000AABBCC9C\n:00000001FF\n"
	err := e.LoadHex(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, byte(0xAA), e.readProgram(0x0000))
	assert.Equal(t, byte(0xBB), e.readProgram(0x0001))
	assert.Equal(t, byte(0xCC), e.readProgram(0x0002))
}

func TestLoadHexHonoursExtendedLinearAddress(t *testing.T) {
	e := NewEngine()
	// The linear address base only matters within a single 64KiB image, so
	// this exercises the record without expecting data past 0xFFFF.
	src := ":02000004000000FC\n:02000000AABB6A\n:00000001FF\n"
	err := e.LoadHex(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, byte(0xAA), e.readProgram(0x0000))
	assert.Equal(t, byte(0xBB), e.readProgram(0x0001))
}

func TestLoadHexSkipsMalformedLineWithoutAborting(t *testing.T) {
	e := NewEngine()
	var warnings []string
	e.Diag = func(format string, args ...any) { warnings = append(warnings, format) }

	src := "garbage line\n:02000000AABB6C\n:00000001FF\n"
	err := e.LoadHex(strings.NewReader(src))
	require.NoError(t, err)

	assert.NotEmpty(t, warnings)
	assert.Equal(t, byte(0xAA), e.readProgram(0x0000))
}

func TestLoadHexStopsAtEOFRecord(t *testing.T) {
	e := NewEngine()
	src := ":01000000AA54\n:00000001FF\n:0100000055AA\n"
	err := e.LoadHex(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, byte(0xAA), e.readProgram(0x0000))
	assert.Equal(t, byte(0), e.readProgram(0x0001)) // record after EOF never applied
}
