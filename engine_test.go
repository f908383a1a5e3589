package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadProgram(e *Engine, at uint16, bytes ...byte) {
	for i, b := range bytes {
		e.writeProgramByte(at+uint16(i), b)
	}
}

func TestResetRestoresPowerOnState(t *testing.T) {
	e := NewEngine()
	e.setA(0x42)
	e.pc = 0x1234
	e.Reset()

	snap := e.Snapshot()
	assert.Equal(t, uint16(0), snap.PC)
	assert.Equal(t, byte(0), snap.A)
	assert.Equal(t, byte(0x07), snap.SP)
	assert.Equal(t, byte(0xFF), snap.P0)
}

func TestAddSetsCarryAndAuxCarry(t *testing.T) {
	e := NewEngine()
	e.setA(0xFF)
	loadProgram(e, 0, 0x24, 0x01) // ADD A,#1
	e.Step()

	assert.Equal(t, byte(0), e.a)
	assert.True(t, e.flag(flagCY))
	assert.True(t, e.flag(flagAC))
}

func TestSubbBorrowSetsCarry(t *testing.T) {
	e := NewEngine()
	e.setA(0x00)
	loadProgram(e, 0, 0x94, 0x01) // SUBB A,#1
	e.Step()

	assert.Equal(t, byte(0xFF), e.a)
	assert.True(t, e.flag(flagCY))
}

func TestDivByZeroSetsOverflowNotCarry(t *testing.T) {
	e := NewEngine()
	e.setA(10)
	e.setB(0)
	loadProgram(e, 0, 0x84) // DIV AB
	e.Step()

	assert.True(t, e.flag(flagOV))
	assert.False(t, e.flag(flagCY))
	assert.Equal(t, byte(10), e.a)
}

func TestAjmpPreservesHighPCBits(t *testing.T) {
	e := NewEngine()
	e.pc = 0x0900
	// AJMP page 0 (opcode 0x01), target low byte 0x10; the instruction's own
	// post-fetch PC (0x0902) supplies the high bits above the 11-bit field.
	loadProgram(e, 0x0900, 0x01, 0x10)
	e.Step()

	assert.Equal(t, uint16(0x0810), e.pc)
}

func TestRegisterBankSwitchesRnView(t *testing.T) {
	e := NewEngine()
	e.setR(0, 0xAA)
	e.setFlag(flagRS0, true)
	e.setR(0, 0xBB)

	assert.Equal(t, byte(0xBB), e.getR(0))
	e.setFlag(flagRS0, false)
	assert.Equal(t, byte(0xAA), e.getR(0))
}

func TestStackPushPopIsSymmetric(t *testing.T) {
	e := NewEngine()
	startSP := e.sp
	e.push(0x11)
	e.push(0x22)

	assert.Equal(t, byte(0x22), e.pop())
	assert.Equal(t, byte(0x11), e.pop())
	assert.Equal(t, startSP, e.sp)
}

func TestSFRAccumulatorCoherence(t *testing.T) {
	e := NewEngine()
	e.writeInternal(sfrACC, 0x5A)
	require.Equal(t, byte(0x5A), e.a)
	assert.Equal(t, byte(0x5A), e.readInternal(sfrACC))
}

func TestBitAddressRoundTrip(t *testing.T) {
	e := NewEngine()
	e.writeBit(0x10, true)
	assert.True(t, e.readBit(0x10))
	e.writeBit(0x10, false)
	assert.False(t, e.readBit(0x10))
}
