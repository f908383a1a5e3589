// decode.go - instruction fetch and the 256-entry opcode dispatch table.
//
// Grounded on the big-switch dispatch style used by the teacher's six5go2
// core, generalised from a flat byte array to the 8051's mixed direct/
// indirect/bit/register addressing modes. Opcodes that share a formula
// across a contiguous range (INC Rn, ADD A,Rn, MOV Rn,#data, ...) are
// grouped into one case using the low 3 bits of the opcode as the register
// index, per the original's family layout.
package main

// fetchImmediate reads the byte at PC and advances PC past it.
func (e *Engine) fetchImmediate() byte {
	v := e.readProgram(e.pc)
	e.pc++
	return v
}

// fetchRel reads a signed relative branch displacement.
func (e *Engine) fetchRel() int8 {
	return int8(e.fetchImmediate())
}

// relTarget resolves a relative branch against PC as it stands once the
// whole instruction (including the displacement byte) has been fetched.
func (e *Engine) relTarget(off int8) uint16 {
	return uint16(int32(e.pc) + int32(off))
}

// ajmpAddr resolves an AJMP/ACALL target: the low byte follows the opcode,
// the high 3 bits come from the opcode itself, and the remaining high bits
// are inherited from PC as it stands after the whole 2-byte instruction is
// fetched - the classic 8051 "page" quirk.
func (e *Engine) ajmpAddr(op byte) uint16 {
	lo := e.fetchImmediate()
	hi := uint16(op&0xE0) << 3
	return (e.pc & 0xF800) | hi | uint16(lo)
}

func (e *Engine) ljmpAddr() uint16 {
	hi := e.fetchImmediate()
	lo := e.fetchImmediate()
	return uint16(hi)<<8 | uint16(lo)
}

func (e *Engine) readIndirect(reg byte) byte      { return e.internal[e.getR(reg)] }
func (e *Engine) writeIndirect(reg byte, v byte) { e.internal[e.getR(reg)] = v }

// dispatch fetches, decodes and executes exactly one instruction.
func (e *Engine) dispatch() {
	op := e.readProgram(e.pc)
	e.pc++

	switch {
	case op == 0x00: // NOP
		e.cycles++

	case op&0x1F == 0x01: // AJMP addr11
		target := e.ajmpAddr(op)
		e.pc = target
		e.cycles += 2

	case op&0x1F == 0x11: // ACALL addr11
		callAt := op
		target := e.ajmpAddr(callAt)
		e.doCall(target, 2)

	case op == 0x02: // LJMP addr16
		e.pc = e.ljmpAddr()
		e.cycles += 2

	case op == 0x12: // LCALL addr16
		target := e.ljmpAddr()
		e.doCall(target, 3)

	case op == 0x22: // RET
		e.doRet(false)

	case op == 0x32: // RETI
		e.doRet(true)

	case op == 0x73: // JMP @A+DPTR
		e.pc = e.dptr + uint16(e.a)
		e.cycles += 2

	case op == 0x80: // SJMP rel
		off := e.fetchRel()
		e.pc = e.relTarget(off)
		e.cycles += 2

	case op == 0x03: // RR A
		e.setA(e.a>>1 | e.a<<7)
		e.cycles++
	case op == 0x13: // RRC A
		e.rrcA()
	case op == 0x23: // RL A
		e.setA(e.a<<1 | e.a>>7)
		e.cycles++
	case op == 0x33: // RLC A
		e.rlcA()
	case op == 0xC4:
		e.setA(e.a<<4 | e.a>>4)
		e.cycles++

	case op == 0x04: // INC A
		e.setA(e.a + 1)
		e.cycles++
	case op == 0x05: // INC direct
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readInternal(addr)+1)
		e.cycles++
	case op == 0x06, op == 0x07: // INC @Ri
		r := op - 0x06
		v := e.readIndirect(r) + 1
		e.writeIndirect(r, v)
		e.cycles++
	case op >= 0x08 && op <= 0x0F: // INC Rn
		n := op & 0x07
		e.setR(n, e.getR(n)+1)
		e.cycles++

	case op == 0x14: // DEC A
		e.setA(e.a - 1)
		e.cycles++
	case op == 0x15:
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readInternal(addr)-1)
		e.cycles++
	case op == 0x16, op == 0x17:
		r := op - 0x16
		v := e.readIndirect(r) - 1
		e.writeIndirect(r, v)
		e.cycles++
	case op >= 0x18 && op <= 0x1F:
		n := op & 0x07
		e.setR(n, e.getR(n)-1)
		e.cycles++

	case op == 0xA3: // INC DPTR
		e.setDPTR(e.dptr + 1)
		e.cycles++

	case op == 0xA4: // MUL AB
		e.mulAB()
	case op == 0x84: // DIV AB
		e.divAB()
	case op == 0xD4: // DA A
		e.daa()

	case op == 0x10: // JBC bit,rel
		e.jbc()
	case op == 0x20: // JB bit,rel
		e.jumpIfBit(true)
	case op == 0x30: // JNB bit,rel
		e.jumpIfBit(false)
	case op == 0x40: // JC rel
		e.jumpIfFlag(flagCY, true)
	case op == 0x50: // JNC rel
		e.jumpIfFlag(flagCY, false)
	case op == 0x60: // JZ rel
		e.jumpIfZero(true)
	case op == 0x70: // JNZ rel
		e.jumpIfZero(false)

	case op == 0x72: // ORL C,bit
		b := e.fetchImmediate()
		e.setFlag(flagCY, e.flag(flagCY) || e.readBit(b))
		e.cycles++
	case op == 0x82: // ANL C,bit
		b := e.fetchImmediate()
		e.setFlag(flagCY, e.flag(flagCY) && e.readBit(b))
		e.cycles++
	case op == 0xA0: // ORL C,/bit
		b := e.fetchImmediate()
		e.setFlag(flagCY, e.flag(flagCY) || !e.readBit(b))
		e.cycles++
	case op == 0xB0: // ANL C,/bit
		b := e.fetchImmediate()
		e.setFlag(flagCY, e.flag(flagCY) && !e.readBit(b))
		e.cycles++
	case op == 0x92: // MOV bit,C
		b := e.fetchImmediate()
		e.writeBit(b, e.flag(flagCY))
		e.cycles++
	case op == 0xA2: // MOV C,bit
		b := e.fetchImmediate()
		e.setFlag(flagCY, e.readBit(b))
		e.cycles++
	case op == 0xB2: // CPL bit
		b := e.fetchImmediate()
		e.writeBit(b, !e.readBit(b))
		e.cycles++
	case op == 0xB3: // CPL C
		e.setFlag(flagCY, !e.flag(flagCY))
		e.cycles++
	case op == 0xC2: // CLR bit
		b := e.fetchImmediate()
		e.writeBit(b, false)
		e.cycles++
	case op == 0xC3: // CLR C
		e.setFlag(flagCY, false)
		e.cycles++
	case op == 0xD2: // SETB bit
		b := e.fetchImmediate()
		e.writeBit(b, true)
		e.cycles++
	case op == 0xD3: // SETB C
		e.setFlag(flagCY, true)
		e.cycles++

	case op == 0x24: // ADD A,#data
		e.addA(e.fetchImmediate(), 0)
	case op == 0x25: // ADD A,direct
		e.addA(e.readInternal(e.fetchDirectAddr()), 0)
	case op == 0x26, op == 0x27: // ADD A,@Ri
		e.addA(e.readIndirect(op-0x26), 0)
	case op >= 0x28 && op <= 0x2F: // ADD A,Rn
		e.addA(e.getR(op&0x07), 0)

	case op == 0x34:
		e.addA(e.fetchImmediate(), e.carryIn())
	case op == 0x35:
		e.addA(e.readInternal(e.fetchDirectAddr()), e.carryIn())
	case op == 0x36, op == 0x37:
		e.addA(e.readIndirect(op-0x36), e.carryIn())
	case op >= 0x38 && op <= 0x3F:
		e.addA(e.getR(op&0x07), e.carryIn())

	case op == 0x94:
		e.subA(e.fetchImmediate(), e.carryIn())
	case op == 0x95:
		e.subA(e.readInternal(e.fetchDirectAddr()), e.carryIn())
	case op == 0x96, op == 0x97:
		e.subA(e.readIndirect(op-0x96), e.carryIn())
	case op >= 0x98 && op <= 0x9F:
		e.subA(e.getR(op&0x07), e.carryIn())

	case op == 0x42: // ORL direct,A
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readInternal(addr)|e.a)
		e.cycles++
	case op == 0x43: // ORL direct,#data
		addr := e.fetchDirectAddr()
		v := e.fetchImmediate()
		e.writeInternal(addr, e.readInternal(addr)|v)
		e.cycles++
	case op == 0x44:
		e.setA(e.a | e.fetchImmediate())
		e.cycles++
	case op == 0x45:
		e.setA(e.a | e.readInternal(e.fetchDirectAddr()))
		e.cycles++
	case op == 0x46, op == 0x47:
		e.setA(e.a | e.readIndirect(op-0x46))
		e.cycles++
	case op >= 0x48 && op <= 0x4F:
		e.setA(e.a | e.getR(op&0x07))
		e.cycles++

	case op == 0x52:
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readInternal(addr)&e.a)
		e.cycles++
	case op == 0x53:
		addr := e.fetchDirectAddr()
		v := e.fetchImmediate()
		e.writeInternal(addr, e.readInternal(addr)&v)
		e.cycles++
	case op == 0x54:
		e.setA(e.a & e.fetchImmediate())
		e.cycles++
	case op == 0x55:
		e.setA(e.a & e.readInternal(e.fetchDirectAddr()))
		e.cycles++
	case op == 0x56, op == 0x57:
		e.setA(e.a & e.readIndirect(op-0x56))
		e.cycles++
	case op >= 0x58 && op <= 0x5F:
		e.setA(e.a & e.getR(op&0x07))
		e.cycles++

	case op == 0x62:
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readInternal(addr)^e.a)
		e.cycles++
	case op == 0x63:
		addr := e.fetchDirectAddr()
		v := e.fetchImmediate()
		e.writeInternal(addr, e.readInternal(addr)^v)
		e.cycles++
	case op == 0x64:
		e.setA(e.a ^ e.fetchImmediate())
		e.cycles++
	case op == 0x65:
		e.setA(e.a ^ e.readInternal(e.fetchDirectAddr()))
		e.cycles++
	case op == 0x66, op == 0x67:
		e.setA(e.a ^ e.readIndirect(op-0x66))
		e.cycles++
	case op >= 0x68 && op <= 0x6F:
		e.setA(e.a ^ e.getR(op&0x07))
		e.cycles++

	case op == 0xE4: // CLR A
		e.setA(0)
		e.cycles++
	case op == 0xF4: // CPL A
		e.setA(^e.a)
		e.cycles++

	case op == 0xB4, op == 0xB5, op == 0xB6, op == 0xB7, (op >= 0xB8 && op <= 0xBF):
		e.cjne(op)

	case op == 0xD5: // DJNZ direct,rel
		addr := e.fetchDirectAddr()
		v := e.readInternal(addr) - 1
		e.writeInternal(addr, v)
		off := e.fetchRel()
		e.cycles += 2
		if v != 0 {
			e.pc = e.relTarget(off)
		}
	case op >= 0xD8 && op <= 0xDF: // DJNZ Rn,rel
		n := op & 0x07
		v := e.getR(n) - 1
		e.setR(n, v)
		off := e.fetchRel()
		e.cycles += 2
		if v != 0 {
			e.pc = e.relTarget(off)
		}

	case op == 0x74: // MOV A,#data
		e.setA(e.fetchImmediate())
		e.cycles++
	case op == 0x75: // MOV direct,#data
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.fetchImmediate())
		e.cycles++
	case op == 0x76, op == 0x77: // MOV @Ri,#data
		v := e.fetchImmediate()
		e.writeIndirect(op-0x76, v)
		e.cycles++
	case op >= 0x78 && op <= 0x7F: // MOV Rn,#data
		e.setR(op&0x07, e.fetchImmediate())
		e.cycles++

	case op == 0x85: // MOV direct,direct (operand order: src, then dest)
		src := e.fetchDirectAddr()
		dst := e.fetchDirectAddr()
		e.writeInternal(dst, e.readInternal(src))
		e.cycles += 2
	case op == 0x86, op == 0x87: // MOV direct,@Ri
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.readIndirect(op-0x86))
		e.cycles++
	case op >= 0x88 && op <= 0x8F: // MOV direct,Rn
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.getR(op&0x07))
		e.cycles++

	case op == 0x90: // MOV DPTR,#data16
		hi := e.fetchImmediate()
		lo := e.fetchImmediate()
		e.setDPTR(uint16(hi)<<8 | uint16(lo))
		e.cycles++

	case op == 0x93: // MOVC A,@A+DPTR
		e.setA(e.readProgram(e.dptr + uint16(e.a)))
		e.cycles += 2
	case op == 0x83: // MOVC A,@A+PC
		base := e.pc
		e.setA(e.readProgram(base + uint16(e.a)))
		e.cycles += 2

	case op == 0xA6, op == 0xA7: // MOV @Ri,direct
		addr := e.fetchDirectAddr()
		e.writeIndirect(op-0xA6, e.readInternal(addr))
		e.cycles++
	case op >= 0xA8 && op <= 0xAF: // MOV Rn,direct
		addr := e.fetchDirectAddr()
		e.setR(op&0x07, e.readInternal(addr))
		e.cycles++

	case op == 0xC0: // PUSH direct
		e.push(e.readInternal(e.fetchDirectAddr()))
		e.cycles += 2
	case op == 0xD0: // POP direct
		addr := e.fetchDirectAddr()
		e.writeInternal(addr, e.pop())
		e.cycles += 2

	case op == 0xC5: // XCH A,direct
		addr := e.fetchDirectAddr()
		v := e.readInternal(addr)
		e.writeInternal(addr, e.a)
		e.setA(v)
		e.cycles++
	case op == 0xC6, op == 0xC7: // XCH A,@Ri
		r := op - 0xC6
		v := e.readIndirect(r)
		e.writeIndirect(r, e.a)
		e.setA(v)
		e.cycles++
	case op >= 0xC8 && op <= 0xCF: // XCH A,Rn
		n := op & 0x07
		v := e.getR(n)
		e.setR(n, e.a)
		e.setA(v)
		e.cycles++

	case op == 0xD6, op == 0xD7: // XCHD A,@Ri
		r := op - 0xD6
		mv := e.readIndirect(r)
		newA := (e.a & 0xF0) | (mv & 0x0F)
		newM := (mv & 0xF0) | (e.a & 0x0F)
		e.writeIndirect(r, newM)
		e.setA(newA)
		e.cycles++

	case op == 0xE0: // MOVX A,@DPTR
		e.setA(e.readExternal(e.dptr))
		e.cycles += 2
	case op == 0xE2, op == 0xE3: // MOVX A,@Ri
		e.setA(e.readExternal(uint16(e.getR(op - 0xE2))))
		e.cycles += 2
	case op == 0xF0: // MOVX @DPTR,A
		e.writeExternal(e.dptr, e.a)
		e.cycles += 2
	case op == 0xF2, op == 0xF3: // MOVX @Ri,A
		e.writeExternal(uint16(e.getR(op-0xF2)), e.a)
		e.cycles += 2

	case op == 0xE5: // MOV A,direct
		e.setA(e.readInternal(e.fetchDirectAddr()))
		e.cycles++
	case op == 0xE6, op == 0xE7: // MOV A,@Ri
		e.setA(e.readIndirect(op - 0xE6))
		e.cycles++
	case op >= 0xE8 && op <= 0xEF: // MOV A,Rn
		e.setA(e.getR(op & 0x07))
		e.cycles++

	case op == 0xF5: // MOV direct,A
		e.writeInternal(e.fetchDirectAddr(), e.a)
		e.cycles++
	case op == 0xF6, op == 0xF7: // MOV @Ri,A
		e.writeIndirect(op-0xF6, e.a)
		e.cycles++
	case op >= 0xF8 && op <= 0xFF: // MOV Rn,A
		e.setR(op&0x07, e.a)
		e.cycles++

	default:
		e.logf("unimplemented opcode 0x%02X at 0x%04X", op, e.pc-1)
		e.cycles++
	}
}

func (e *Engine) fetchDirectAddr() byte { return e.fetchImmediate() }

func (e *Engine) carryIn() byte {
	if e.flag(flagCY) {
		return 1
	}
	return 0
}

func (e *Engine) doCall(target uint16, size uint16) {
	switch e.consultTrap(target) {
	case trapPending:
		e.pc -= size
		e.running = false
	case trapHandled:
		e.cycles += 2
	case trapNone:
		e.push(byte(e.pc))
		e.push(byte(e.pc >> 8))
		e.pc = target
		e.cycles += 2
	}
}

func (e *Engine) doRet(restoreFlags bool) {
	hi := e.pop()
	lo := e.pop()
	e.pc = uint16(hi)<<8 | uint16(lo)
	_ = restoreFlags // RETI has no dedicated interrupt-priority state to restore here
	e.cycles += 2
}
