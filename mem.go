package dmgmem

import "fmt"

const (
	showMemReads  = false
	showMemWrites = false
)

// IOHandler owns the device registers in 0xff00-0xff7f that the core doesn't
// handle itself (joypad, timer, sound, lcd...).
type IOHandler interface {
	ReadIO(addr uint16) byte
	WriteIO(addr uint16, val byte)
}

type mem struct {
	mbc   mbc
	cart  *CartInfo
	rom   []byte
	clock Clock
	io    IOHandler

	CartRAM []byte
	Rumble  rumble

	VRAM     [2][0x2000]byte
	VRAMBank byte
	WRAM     [8][0x1000]byte
	WRAMBank byte
	OAM      [0xa0]byte
	HRAM     [0x7f]byte
	IE       byte

	// backs device registers when no IOHandler was given
	IORegs    [0x80]byte
	OAMDMAReg byte
}

// resolveROMBank wraps a requested bank onto the banks the cart declares
func (mem *mem) resolveROMBank(bank int) int {
	return bank % mem.cart.ROMBanks
}

// resolveRAMBank does the same for cart ram banks
func (mem *mem) resolveRAMBank(bank int) int {
	if mem.cart.RAMBanks == 0 {
		return 0
	}
	return bank % mem.cart.RAMBanks
}

func (mem *mem) readROM(bank int, offset uint16) byte {
	realAddr := mem.resolveROMBank(bank)*romBankSize + int(offset)
	if realAddr < len(mem.rom) {
		return mem.rom[realAddr]
	}
	// image shorter than the header claims
	return 0xff
}

func (mem *mem) cartRAMAddr(bank int, addr uint16) int {
	realAddr := mem.resolveRAMBank(bank)*ramBankSize + int(addr-0xa000)
	// every ram size is a power of two, smaller than a bank for 2KB carts
	return realAddr & (len(mem.CartRAM) - 1)
}

func (mem *mem) readCartRAM(bank int, addr uint16) byte {
	if len(mem.CartRAM) == 0 {
		return 0xff
	}
	return mem.CartRAM[mem.cartRAMAddr(bank, addr)]
}

func (mem *mem) writeCartRAM(bank int, addr uint16, val byte) {
	if len(mem.CartRAM) > 0 {
		mem.CartRAM[mem.cartRAMAddr(bank, addr)] = val
	}
}

func (mem *mem) wramBank() int {
	if bank := int(mem.WRAMBank & 0x07); bank != 0 {
		return bank
	}
	return 1
}

func (emu *emuState) read(addr uint16) byte {
	var val byte
	mem := &emu.Mem
	switch {
	case addr < 0x4000:
		val = mem.readROM(mem.mbc.ROMBank0(), addr)
	case addr < 0x8000:
		val = mem.readROM(mem.mbc.ROMBank(), addr-0x4000)
	case addr < 0xa000:
		val = mem.VRAM[mem.VRAMBank&0x01][addr-0x8000]
	case addr < 0xc000:
		val = mem.mbc.ReadExt(mem, addr)
	case addr < 0xd000:
		val = mem.WRAM[0][addr-0xc000]
	case addr < 0xe000:
		val = mem.WRAM[mem.wramBank()][addr-0xd000]
	case addr < 0xfe00:
		val = emu.read(addr - 0x2000) // echo ram
	case addr < 0xfea0:
		val = mem.OAM[addr-0xfe00]
	case addr < 0xff00:
		val = 0xff // unusable
	case addr < 0xff80:
		val = emu.readIO(addr)
	case addr < 0xffff:
		val = mem.HRAM[addr-0xff80]
	default:
		val = mem.IE
	}
	if showMemReads {
		fmt.Printf("read(0x%04x) = 0x%02x\n", addr, val)
	}
	return val
}

func (emu *emuState) write(addr uint16, val byte) {
	mem := &emu.Mem
	switch {
	case addr < 0x8000:
		// rom never stores, writes are controller registers
		mem.mbc.Write(mem, addr, val)
	case addr < 0xa000:
		mem.VRAM[mem.VRAMBank&0x01][addr-0x8000] = val
	case addr < 0xc000:
		mem.mbc.WriteExt(mem, addr, val)
	case addr < 0xd000:
		mem.WRAM[0][addr-0xc000] = val
	case addr < 0xe000:
		mem.WRAM[mem.wramBank()][addr-0xd000] = val
	case addr < 0xfe00:
		emu.write(addr-0x2000, val)
	case addr < 0xfea0:
		mem.OAM[addr-0xfe00] = val
	case addr < 0xff00:
		// unusable: nop
	case addr < 0xff80:
		emu.writeIO(addr, val)
	case addr < 0xffff:
		mem.HRAM[addr-0xff80] = val
	default:
		mem.IE = val
	}
	if showMemWrites {
		fmt.Printf("write(0x%04x, 0x%02x)\n", addr, val)
	}
}

func (emu *emuState) readIO(addr uint16) byte {
	mem := &emu.Mem
	cgb := mem.cart.IsCGB
	switch {
	case addr == 0xff46:
		return mem.OAMDMAReg
	case addr == 0xff4f && cgb:
		return 0xfe | mem.VRAMBank
	case addr >= 0xff51 && addr <= 0xff54 && cgb:
		return 0xff // hdma addr regs, write only
	case addr == 0xff55 && cgb:
		return emu.DMA.readStatusReg()
	case addr == 0xff70 && cgb:
		return 0xf8 | mem.WRAMBank
	}
	if mem.io != nil {
		return mem.io.ReadIO(addr)
	}
	return mem.IORegs[addr-0xff00]
}

func (emu *emuState) writeIO(addr uint16, val byte) {
	mem := &emu.Mem
	cgb := mem.cart.IsCGB
	switch {
	case addr == 0xff46:
		emu.oamDMA(val)
	case addr == 0xff4f && cgb:
		mem.VRAMBank = val & 0x01
	case addr == 0xff51 && cgb:
		emu.DMA.SrcHigh = val
	case addr == 0xff52 && cgb:
		emu.DMA.SrcLow = val
	case addr == 0xff53 && cgb:
		emu.DMA.DstHigh = val
	case addr == 0xff54 && cgb:
		emu.DMA.DstLow = val
	case addr == 0xff55 && cgb:
		emu.writeDMAControlReg(val)
	case addr == 0xff70 && cgb:
		mem.WRAMBank = val & 0x07
	default:
		if mem.io != nil {
			mem.io.WriteIO(addr, val)
		} else {
			mem.IORegs[addr-0xff00] = val
		}
	}
}
