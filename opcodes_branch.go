// opcodes_branch.go - CJNE in its four addressing-mode flavours. Flow
// control for JMP/CALL/RET/AJMP family lives in decode.go next to the
// opcode table since their targets are computed inline from the opcode byte.
package main

// cjne implements all four CJNE encodings: compare two bytes, set CY if the
// left operand is less than the right, and branch on the relative
// displacement when they differ.
func (e *Engine) cjne(op byte) {
	var left, right byte

	switch {
	case op == 0xB4: // CJNE A,#data,rel
		left = e.a
		right = e.fetchImmediate()
	case op == 0xB5: // CJNE A,direct,rel
		left = e.a
		right = e.readInternal(e.fetchDirectAddr())
	case op == 0xB6, op == 0xB7: // CJNE @Ri,#data,rel
		left = e.readIndirect(op - 0xB6)
		right = e.fetchImmediate()
	default: // CJNE Rn,#data,rel (0xB8-0xBF)
		left = e.getR(op & 0x07)
		right = e.fetchImmediate()
	}

	off := e.fetchRel()
	e.setFlag(flagCY, left < right)
	e.cycles += 2
	if left != right {
		e.pc = e.relTarget(off)
	}
}
