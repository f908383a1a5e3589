// memory.go - program memory and external RAM access (no SFR aliasing applies here).
package main

// readProgram reads a byte from the 64 KiB program image, loader-written and
// read-only to instructions.
func (e *Engine) readProgram(addr uint16) byte { return e.program[addr] }

// writeProgramByte is used only by the HEX loader.
func (e *Engine) writeProgramByte(addr uint16, v byte) { e.program[addr] = v }

func (e *Engine) readExternal(addr uint16) byte        { return e.external[addr] }
func (e *Engine) writeExternal(addr uint16, v byte)     { e.external[addr] = v }
