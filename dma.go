package dmgmem

import "github.com/theinternetftw/dmgmem/logger"

type dmaMode int

const (
	dmaIdle dmaMode = iota
	dmaArmed
	dmaTransferring
)

// hardware moves 16 bytes per hblank
const dmaUnit = 16

// hdma is the CGB vram dma engine
type hdma struct {
	SrcHigh byte
	SrcLow  byte
	DstHigh byte
	DstLow  byte

	Source      uint16
	Dest        uint16
	Length      int
	Mode        dmaMode
	HBlankPaced bool
}

// arm sets up a transfer, replacing any in flight. Lengths that aren't a
// positive multiple of the unit leave the engine alone.
func (d *hdma) arm(src, dst uint16, length int, hblank bool) bool {
	if length <= 0 || length%dmaUnit != 0 {
		logger.Logf("hdma", "refusing to arm transfer of %d bytes", length)
		return false
	}
	if d.Mode != dmaIdle {
		logger.Logf("hdma", "restarting transfer with %d bytes left", d.Length)
	}
	d.Source = src & 0xfff0
	d.Dest = 0x8000 | (dst & 0x1ff0)
	d.Length = length
	d.Mode = dmaArmed
	d.HBlankPaced = hblank
	return true
}

func (d *hdma) active() bool {
	return d.Mode != dmaIdle
}

func (d *hdma) readStatusReg() byte {
	if d.Length == 0 {
		return 0xff
	}
	remaining := byte(d.Length/dmaUnit-1) & 0x7f
	if !d.active() {
		// stopped early: bit 7 set, count left behind
		return 0x80 | remaining
	}
	return remaining
}

// advanceDMAUnit copies one unit through the normal memory map and reports
// whether more of the transfer is left.
func (emu *emuState) advanceDMAUnit() bool {
	d := &emu.DMA
	if !d.active() {
		return false
	}
	d.Mode = dmaTransferring
	for i := 0; i < dmaUnit; i++ {
		emu.write(d.Dest, emu.read(d.Source))
		d.Source++
		d.Dest = 0x8000 | ((d.Dest + 1) & 0x1fff)
	}
	d.Length -= dmaUnit
	if d.Length <= 0 {
		d.Length = 0
		d.Mode = dmaIdle
		return false
	}
	return true
}

func (emu *emuState) writeDMAControlReg(val byte) {
	d := &emu.DMA
	hblank := val&0x80 != 0
	if d.active() && d.HBlankPaced && !hblank {
		// bit 7 clear during an hblank transfer stops it where it is
		d.Mode = dmaIdle
		return
	}

	src := uint16(d.SrcHigh)<<8 | uint16(d.SrcLow)
	dst := uint16(d.DstHigh)<<8 | uint16(d.DstLow)
	length := (int(val&0x7f) + 1) * dmaUnit
	if !d.arm(src, dst, length, hblank) {
		return
	}
	if !hblank {
		for emu.advanceDMAUnit() {
		}
	}
}

// oamDMA copies 160 bytes to OAM in one go
func (emu *emuState) oamDMA(addrBase byte) {
	emu.Mem.OAMDMAReg = addrBase
	addr := uint16(addrBase) << 8
	for i := range emu.Mem.OAM {
		emu.Mem.OAM[i] = emu.read(addr)
		addr++
	}
}
