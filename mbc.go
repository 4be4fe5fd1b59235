package dmgmem

import (
	"encoding/json"
	"fmt"
)

func makeMBC(cartInfo *CartInfo) mbc {
	switch cartInfo.Family {
	case FamilyNone:
		return &mbcNone{}
	case FamilyMBC1:
		return &mbc1{}
	case FamilyMBC1M:
		return &mbc1{Multicart: true}
	case FamilyMBC2:
		return &mbc2{}
	case FamilyMBC3:
		return &mbc3{}
	case FamilyMBC5:
		return &mbc5{}
	case FamilyHuC1:
		return &huc1{}
	default:
		// ParseCartInfo never hands out anything else
		panic(fmt.Sprintf("makeMBC: unknown controller family %v", cartInfo.Family))
	}
}

// mbc is the bank-switch controller on the cart. One is picked at load time
// from the cart family and never changes.
type mbc interface {
	Init(mem *mem)

	// Write handles a write to 0x0000-0x7fff, which is never a store
	Write(mem *mem, addr uint16, val byte)

	// ROMBank0 and ROMBank are the unwrapped bank numbers for the
	// 0x0000-0x3fff and 0x4000-0x7fff windows
	ROMBank0() int
	ROMBank() int

	// ReadExt and WriteExt cover 0xa000-0xbfff
	ReadExt(mem *mem, addr uint16) byte
	WriteExt(mem *mem, addr uint16, val byte)

	Marshal() marshalledMBC
}

type marshalledMBC struct {
	Family Family
	Data   []byte
}

func marshalMBC(family Family, m mbc) marshalledMBC {
	rawJSON, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return marshalledMBC{
		Family: family,
		Data:   rawJSON,
	}
}

func unmarshalMBC(m marshalledMBC) (mbc, error) {
	var mbc mbc
	switch m.Family {
	case FamilyNone:
		mbc = &mbcNone{}
	case FamilyMBC1, FamilyMBC1M:
		mbc = &mbc1{}
	case FamilyMBC2:
		mbc = &mbc2{}
	case FamilyMBC3:
		mbc = &mbc3{}
	case FamilyMBC5:
		mbc = &mbc5{}
	case FamilyHuC1:
		mbc = &huc1{}
	default:
		return nil, fmt.Errorf("state contained unknown controller family %v", m.Family)
	}
	if err := json.Unmarshal(m.Data, mbc); err != nil {
		return nil, err
	}
	return mbc, nil
}

// low nibble 0x0a enables cart ram on every controller that gates it
func ramEnableVal(val byte) bool {
	return val&0x0f == 0x0a
}

// ROM only, with or without plain 8KB ram. No registers, ram always on.
type mbcNone struct{}

func (m *mbcNone) Init(mem *mem)                         {}
func (m *mbcNone) Write(mem *mem, addr uint16, val byte) {}
func (m *mbcNone) ROMBank0() int                         { return 0 }
func (m *mbcNone) ROMBank() int                          { return 1 }
func (m *mbcNone) Marshal() marshalledMBC                { return marshalMBC(FamilyNone, m) }

func (m *mbcNone) ReadExt(mem *mem, addr uint16) byte {
	if !mem.cart.HasRAM {
		return 0xff
	}
	return mem.readCartRAM(0, addr)
}

func (m *mbcNone) WriteExt(mem *mem, addr uint16, val byte) {
	if mem.cart.HasRAM {
		mem.writeCartRAM(0, addr, val)
	}
}

type mbc1 struct {
	Bank1      byte // 5 bits
	Bank2      byte // 2 bits
	Mode       bool
	RAMEnabled bool
	Multicart  bool
}

func (m *mbc1) Init(mem *mem) {
	m.Bank1 = 1
}

func (m *mbc1) Marshal() marshalledMBC {
	if m.Multicart {
		return marshalMBC(FamilyMBC1M, m)
	}
	return marshalMBC(FamilyMBC1, m)
}

// multicarts drop bit 4 of bank1 and wire bank2 in its place
func (m *mbc1) shift() (uint, byte) {
	if m.Multicart {
		return 4, 0x0f
	}
	return 5, 0x1f
}

func (m *mbc1) Write(mem *mem, addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		m.RAMEnabled = ramEnableVal(val)
	case addr < 0x4000:
		// the zero check sees all 5 bits, even on multicarts
		val &= 0x1f
		if val == 0 {
			val = 1
		}
		m.Bank1 = val
	case addr < 0x6000:
		m.Bank2 = val & 0x03
	default:
		m.Mode = val&0x01 == 0x01
	}
}

func (m *mbc1) ROMBank0() int {
	if !m.Mode {
		return 0
	}
	shift, _ := m.shift()
	return int(m.Bank2) << shift
}

func (m *mbc1) ROMBank() int {
	shift, mask := m.shift()
	return int(m.Bank2)<<shift | int(m.Bank1&mask)
}

func (m *mbc1) ramBank() int {
	if m.Mode {
		return int(m.Bank2)
	}
	return 0
}

func (m *mbc1) ReadExt(mem *mem, addr uint16) byte {
	if !m.RAMEnabled || !mem.cart.HasRAM {
		return 0xff
	}
	return mem.readCartRAM(m.ramBank(), addr)
}

func (m *mbc1) WriteExt(mem *mem, addr uint16, val byte) {
	if m.RAMEnabled && mem.cart.HasRAM {
		mem.writeCartRAM(m.ramBank(), addr, val)
	}
}

type mbc2 struct {
	ROMBankNum int
	RAMEnabled bool
}

func (m *mbc2) Init(mem *mem)          { m.ROMBankNum = 1 }
func (m *mbc2) Marshal() marshalledMBC { return marshalMBC(FamilyMBC2, m) }
func (m *mbc2) ROMBank0() int          { return 0 }
func (m *mbc2) ROMBank() int           { return m.ROMBankNum }

// address bit 8 picks the register, anywhere in 0x0000-0x3fff
func (m *mbc2) Write(mem *mem, addr uint16, val byte) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x100 == 0 {
		m.RAMEnabled = ramEnableVal(val)
		return
	}
	m.ROMBankNum = int(val & 0x0f)
	if m.ROMBankNum == 0 {
		m.ROMBankNum = 1
	}
}

// 512 nibbles, mirrored through the whole window
func (m *mbc2) ReadExt(mem *mem, addr uint16) byte {
	if !m.RAMEnabled {
		return 0xff
	}
	return mem.CartRAM[addr&0x01ff] | 0xf0
}

func (m *mbc2) WriteExt(mem *mem, addr uint16, val byte) {
	if m.RAMEnabled {
		mem.CartRAM[addr&0x01ff] = val & 0x0f
	}
}

type huc1 struct {
	ROMBankNum int
	RAMBankNum int
	RAMEnabled bool
	IRMode     bool
	IRLight    bool
}

func (m *huc1) Init(mem *mem)          { m.ROMBankNum = 1 }
func (m *huc1) Marshal() marshalledMBC { return marshalMBC(FamilyHuC1, m) }
func (m *huc1) ROMBank0() int          { return 0 }
func (m *huc1) ROMBank() int           { return m.ROMBankNum }

func (m *huc1) Write(mem *mem, addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		m.IRMode = val == 0x0e
		m.RAMEnabled = !m.IRMode && ramEnableVal(val)
	case addr < 0x4000:
		m.ROMBankNum = int(val & 0x3f)
		if m.ROMBankNum == 0 {
			m.ROMBankNum = 1
		}
	case addr < 0x6000:
		m.RAMBankNum = int(val & 0x03)
	}
}

func (m *huc1) ReadExt(mem *mem, addr uint16) byte {
	if m.IRMode {
		return 0xc0 // no light seen
	}
	if !m.RAMEnabled || !mem.cart.HasRAM {
		return 0xff
	}
	return mem.readCartRAM(m.RAMBankNum, addr)
}

func (m *huc1) WriteExt(mem *mem, addr uint16, val byte) {
	if m.IRMode {
		m.IRLight = val&0x01 == 0x01
		return
	}
	if m.RAMEnabled && mem.cart.HasRAM {
		mem.writeCartRAM(m.RAMBankNum, addr, val)
	}
}
