package dmgmem

import (
	"testing"

	"github.com/theinternetftw/dmgmem/test"
)

func TestRumbleMotor(t *testing.T) {
	emu := newTestEmu(t, makeROM(0x1d, 2, 0x03, false), Options{})
	test.ExpectFailure(t, emu.RumbleEngaged())
	test.ExpectEquality(t, emu.RumbleStrength(), 0.0)

	emu.Write(0x4000, 0x08)
	test.ExpectSuccess(t, emu.RumbleEngaged())
	test.ExpectEquality(t, emu.RumbleStrength(), 1.0)

	// pulsing the bit
	for i := 0; i < 4; i++ {
		emu.Write(0x4000, byte((i+1)&1)<<3)
	}
	test.ExpectFailure(t, emu.RumbleEngaged())
	test.ExpectEquality(t, emu.RumbleStrength(), 0.5)

	// no writes since the last poll: the motor state alone
	test.ExpectEquality(t, emu.RumbleStrength(), 0.0)
}

func TestRumbleBitIsNotRAMBank(t *testing.T) {
	emu := newTestEmu(t, makeROM(0x1d, 2, 0x03, false), Options{})
	emu.Write(0x0000, 0x0a)

	emu.Write(0x4000, 0x0a)
	emu.Write(0xa000, 0x77)
	test.ExpectEquality(t, emu.Mem.CartRAM[2*ramBankSize], byte(0x77))
	test.ExpectSuccess(t, emu.RumbleEngaged())
}

func TestNoRumbleOnPlainMBC5(t *testing.T) {
	emu := newTestEmu(t, makeROM(0x1b, 2, 0x04, false), Options{})
	emu.Write(0x4000, 0x08)
	test.ExpectFailure(t, emu.RumbleEngaged())
	test.ExpectEquality(t, emu.Mem.mbc.(*mbc5).RAMBankNum, 8)
}
