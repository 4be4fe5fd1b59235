package dmgmem

type mbc5 struct {
	ROMBankNum int // 9 bits, bank 0 is selectable
	RAMBankNum int
	RAMEnabled bool
}

func (m *mbc5) Init(mem *mem)          { m.ROMBankNum = 1 }
func (m *mbc5) Marshal() marshalledMBC { return marshalMBC(FamilyMBC5, m) }
func (m *mbc5) ROMBank0() int          { return 0 }
func (m *mbc5) ROMBank() int           { return m.ROMBankNum }

func (m *mbc5) Write(mem *mem, addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		m.RAMEnabled = ramEnableVal(val)
	case addr < 0x3000:
		m.ROMBankNum = m.ROMBankNum&0x100 | int(val)
	case addr < 0x4000:
		m.ROMBankNum = m.ROMBankNum&0xff | int(val&0x01)<<8
	case addr < 0x6000:
		if mem.cart.HasRumble {
			// bit 3 drives the motor instead of the ram bank
			mem.Rumble.setMotor(val&0x08 != 0)
			m.RAMBankNum = int(val & 0x07)
		} else {
			m.RAMBankNum = int(val & 0x0f)
		}
	}
}

func (m *mbc5) ReadExt(mem *mem, addr uint16) byte {
	if !m.RAMEnabled || !mem.cart.HasRAM {
		return 0xff
	}
	return mem.readCartRAM(m.RAMBankNum, addr)
}

func (m *mbc5) WriteExt(mem *mem, addr uint16, val byte) {
	if m.RAMEnabled && mem.cart.HasRAM {
		mem.writeCartRAM(m.RAMBankNum, addr, val)
	}
}
