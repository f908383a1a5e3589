// engine.go - core 8051 engine: memory, registers, lifecycle and the step/run driver.
package main

import "fmt"

// WaitKind identifies why the engine is parked waiting for host input.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitEnter
	WaitEnterNoMsg
	WaitEnterOrEsc
	WaitKeyPress
	WaitGetNum
)

// Engine is a single instance of the 8051 execution core: memory, registers,
// I/O channels and the monitor trap table. It owns all of its state and is
// not safe for concurrent use from more than one goroutine at a time - the
// host drives it with Step/Run/PushInput from a single control loop.
type Engine struct {
	program  [0x10000]byte // program memory, loader-written only
	internal [0x100]byte   // internal data memory incl. SFR bank 0x80-0xFF
	external [0x10000]byte // external RAM, MOVX only

	a    byte
	b    byte
	dptr uint16
	sp   byte
	pc   uint16
	psw  byte

	cycles  uint64
	running bool
	waiting bool
	waitOn  WaitKind

	in  inputFIFO
	out outputStream

	traps map[uint16]TrapKind

	// diagnostics, written to by the HEX loader and the decoder on
	// unrecognised input; nil means discard (tests default to this).
	Diag func(format string, args ...any)
}

// NewEngine builds a freshly reset engine with the default DSM-51 trap table.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset zeroes all memory, restores reset-state registers, clears both I/O
// buffers and any pending wait, and reinstalls the default trap table.
// Calling it twice in a row leaves the engine indistinguishable from one
// reset, by construction: every field below is reassigned from scratch.
func (e *Engine) Reset() {
	e.program = [0x10000]byte{}
	e.internal = [0x100]byte{}
	e.external = [0x10000]byte{}

	e.a = 0
	e.b = 0
	e.dptr = 0
	e.sp = 0x07
	e.pc = 0
	e.psw = 0

	e.internal[sfrACC] = e.a
	e.internal[sfrB] = e.b
	e.internal[sfrPSW] = e.psw
	e.internal[sfrSP] = e.sp
	e.internal[sfrDPL] = byte(e.dptr)
	e.internal[sfrDPH] = byte(e.dptr >> 8)
	e.internal[sfrP0] = 0xFF
	e.internal[sfrP1] = 0xFF
	e.internal[sfrP2] = 0xFF
	e.internal[sfrP3] = 0xFF

	e.cycles = 0
	e.running = false
	e.waiting = false
	e.waitOn = WaitNone

	e.in.reset()
	e.out.reset()

	e.traps = defaultTrapTable()
}

func (e *Engine) logf(format string, args ...any) {
	if e.Diag != nil {
		e.Diag(format, args...)
	}
}

// Step decodes and executes exactly one opcode. A CALL that traps into a
// pending wait state still counts as processed, but leaves Running false.
func (e *Engine) Step() {
	e.dispatch()
}

// Run sets Running and repeatedly Steps until it clears, or until maxCycles
// (measured from the cycle count at entry) elapses. maxCycles == 0 means no
// bound - only Stop (or a pending trap) ends the run.
func (e *Engine) Run(maxCycles uint64) {
	e.running = true
	start := e.cycles
	for e.running {
		e.Step()
		if maxCycles > 0 && e.cycles-start >= maxCycles {
			break
		}
	}
}

// Stop requests termination of the current Run loop; it takes effect before
// the next instruction is fetched.
func (e *Engine) Stop() {
	e.running = false
}

// Running reports the run flag: true while a Run is in progress and after a
// Run that ended on its cycle bound; false once stopped or parked on a
// pending trap.
func (e *Engine) Running() bool { return e.running }

// IsWaiting reports whether the last Step left a monitor trap pending.
func (e *Engine) IsWaiting() bool { return e.waiting }

// WaitKindCode returns the 0..5 enum code matching §3's WaitKind, for hosts
// that only see the engine across a narrow boundary.
func (e *Engine) WaitKindCode() int { return int(e.waitOn) }

// PushInput feeds host bytes into the engine's input FIFO. Carriage returns
// are stripped so DOS-style lines behave identically to Unix ones.
func (e *Engine) PushInput(data []byte) {
	for _, b := range data {
		if b == '\r' {
			continue
		}
		e.in.push(b)
	}
}

// SetOutputOptions configures the two output sinks independently.
func (e *Engine) SetOutputOptions(capture, mirror bool) {
	e.out.capture = capture
	e.out.mirror = mirror
	if !capture {
		e.out.line = e.out.line[:0]
	}
}

// ReadOutputLine returns the current partial line captured since the last
// newline, without clearing it.
func (e *Engine) ReadOutputLine() string {
	return string(e.out.line)
}

// ClearOutput discards any buffered capture-line content.
func (e *Engine) ClearOutput() {
	e.out.line = e.out.line[:0]
}

// RegisterTrap installs or overrides a monitor trap at addr.
func (e *Engine) RegisterTrap(addr uint16, kind TrapKind) {
	e.traps[addr] = kind
}

// Snapshot is the compact host-facing view of engine state.
type Snapshot struct {
	Cycles uint64
	PC     uint16
	DPTR   uint16
	SP     byte
	A      byte
	B      byte
	PSW    byte
	P0     byte
	P1     byte
	P2     byte
	P3     byte
}

// Snapshot returns the current register/port view used by the CLI and by
// hosts embedding the engine.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Cycles: e.cycles,
		PC:     e.pc,
		DPTR:   e.dptr,
		SP:     e.sp,
		A:      e.a,
		B:      e.b,
		PSW:    e.psw,
		P0:     e.internal[sfrP0],
		P1:     e.internal[sfrP1],
		P2:     e.internal[sfrP2],
		P3:     e.internal[sfrP3],
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"PC:%04X SP:%02X A:%02X B:%02X DPTR:%04X PSW:%02X [CY=%d AC=%d OV=%d P=%d] cycles=%d",
		s.PC, s.SP, s.A, s.B, s.DPTR, s.PSW,
		boolBit(s.PSW&flagCY != 0), boolBit(s.PSW&flagAC != 0),
		boolBit(s.PSW&flagOV != 0), boolBit(s.PSW&flagP != 0), s.Cycles)
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
