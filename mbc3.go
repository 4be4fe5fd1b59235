package dmgmem

import "time"

type extSelectKind int

const (
	extSelectRAM extSelectKind = iota
	extSelectRTC
	extSelectNone
)

// extSelect is what 0xa000-0xbfff currently maps to. It is worked out once,
// when 0x4000-0x5fff is written, not on every access.
type extSelect struct {
	Kind  extSelectKind
	Index int
}

type mbc3 struct {
	ROMBankNum int
	Sel        extSelect
	RAMEnabled bool // also gates the clock
	RTC        rtc
}

func (m *mbc3) Init(mem *mem) {
	m.ROMBankNum = 1
	m.RTC.LastSync = mem.clock.Now()
}

func (m *mbc3) Marshal() marshalledMBC { return marshalMBC(FamilyMBC3, m) }
func (m *mbc3) ROMBank0() int          { return 0 }
func (m *mbc3) ROMBank() int           { return m.ROMBankNum }

func (m *mbc3) cartClock(mem *mem) *rtc {
	if !mem.cart.HasRTC {
		return nil
	}
	return &m.RTC
}

func (m *mbc3) Write(mem *mem, addr uint16, val byte) {
	switch {
	case addr < 0x2000:
		m.RAMEnabled = ramEnableVal(val)
	case addr < 0x4000:
		// 256-bank carts (MBC30) wire the 8th bit
		mask := 0x7f
		if mem.cart.ROMBanks > 128 {
			mask = 0xff
		}
		m.ROMBankNum = int(val) & mask
		if m.ROMBankNum == 0 {
			m.ROMBankNum = 1
		}
	case addr < 0x6000:
		m.Sel = m.resolveSelect(mem, val)
	default:
		if r := m.cartClock(mem); r != nil {
			r.latchWrite(val, mem.clock.Now())
		}
	}
}

func (m *mbc3) resolveSelect(mem *mem, val byte) extSelect {
	switch {
	case val < 0x08:
		mask := 0x03
		if mem.cart.RAMBanks > 4 {
			mask = 0x07
		}
		return extSelect{Kind: extSelectRAM, Index: int(val) & mask}
	case val <= 0x0c && mem.cart.HasRTC:
		return extSelect{Kind: extSelectRTC, Index: int(val - 0x08)}
	default:
		return extSelect{Kind: extSelectNone}
	}
}

func (m *mbc3) ReadExt(mem *mem, addr uint16) byte {
	if !m.RAMEnabled {
		return 0xff
	}
	switch m.Sel.Kind {
	case extSelectRTC:
		return m.RTC.readRegister(m.Sel.Index, mem.clock.Now())
	case extSelectRAM:
		if mem.cart.HasRAM {
			return mem.readCartRAM(m.Sel.Index, addr)
		}
	}
	return 0xff
}

func (m *mbc3) WriteExt(mem *mem, addr uint16, val byte) {
	if !m.RAMEnabled {
		return
	}
	switch m.Sel.Kind {
	case extSelectRTC:
		m.RTC.writeRegister(m.Sel.Index, val, mem.clock.Now())
	case extSelectRAM:
		if mem.cart.HasRAM {
			mem.writeCartRAM(m.Sel.Index, addr, val)
		}
	}
}

func (m *mbc3) tick(mem *mem, now time.Time) {
	if r := m.cartClock(mem); r != nil {
		r.sync(now)
	}
}
