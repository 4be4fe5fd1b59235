package dmgmem

import (
	"testing"
	"time"

	"github.com/theinternetftw/dmgmem/test"
)

func newRTCEmu(t *testing.T) *emuState {
	t.Helper()
	emu := newTestEmu(t, makeROM(0x10, 2, 0x03, false), Options{})
	emu.Write(0x0000, 0x0a)
	return emu
}

func latch(emu *emuState) {
	emu.Write(0x6000, 0x00)
	emu.Write(0x6000, 0x01)
}

func readRTC(emu *emuState, reg byte) byte {
	emu.Write(0x4000, 0x08+reg)
	return emu.Read(0xa000)
}

func writeRTC(emu *emuState, reg byte, val byte) {
	emu.Write(0x4000, 0x08+reg)
	emu.Write(0xa000, val)
}

func TestRTCLatch(t *testing.T) {
	emu := newRTCEmu(t)

	emu.Tick(90 * time.Second)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(0), "before latch")

	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(30))
	test.ExpectEquality(t, readRTC(emu, rtcMinutes), byte(1))

	// the latched copy doesn't move on its own
	emu.Tick(5 * time.Second)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(30), "held")

	// 1 without a 0 first doesn't latch
	emu.Write(0x6000, 0x01)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(30), "no 0 first")

	// neither does 0, 2, 1
	emu.Write(0x6000, 0x00)
	emu.Write(0x6000, 0x02)
	emu.Write(0x6000, 0x01)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(30), "broken sequence")

	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(35))
}

func TestRTCHalt(t *testing.T) {
	emu := newRTCEmu(t)

	writeRTC(emu, rtcDayHigh, rtcHaltBit)
	for i := 0; i < 3; i++ {
		emu.Tick(10 * time.Second)
	}
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(0), "halted")
	test.ExpectEquality(t, readRTC(emu, rtcDayHigh), byte(rtcHaltBit))

	writeRTC(emu, rtcDayHigh, 0x00)
	emu.Tick(10 * time.Second)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(10), "resumed")
	test.ExpectEquality(t, readRTC(emu, rtcDayHigh), byte(0))
}

func TestRTCDisabled(t *testing.T) {
	emu := newRTCEmu(t)
	emu.Tick(3 * time.Second)
	latch(emu)
	emu.Write(0x0000, 0x00)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(0xff))

	writeRTC(emu, rtcSeconds, 0x20)
	emu.Write(0x0000, 0x0a)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(3), "write while disabled")
}

func TestRTCSelectAliasesRAM(t *testing.T) {
	emu := newRTCEmu(t)
	emu.Write(0x4000, 0x00)
	emu.Write(0xa000, 0x99)

	emu.Write(0x4000, 0x08)
	test.ExpectEquality(t, emu.Read(0xa000), byte(0x00), "clock has priority")

	emu.Write(0x4000, 0x00)
	test.ExpectEquality(t, emu.Read(0xa000), byte(0x99))
}

func TestRTCWriteRegisters(t *testing.T) {
	emu := newRTCEmu(t)

	writeRTC(emu, rtcSeconds, 59)
	writeRTC(emu, rtcMinutes, 59)
	writeRTC(emu, rtcHours, 23)
	writeRTC(emu, rtcDayLow, 0xff)
	writeRTC(emu, rtcDayHigh, 0x01)
	emu.Tick(time.Second)
	latch(emu)

	// day 511 rolls to 0 with carry
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(0))
	test.ExpectEquality(t, readRTC(emu, rtcMinutes), byte(0))
	test.ExpectEquality(t, readRTC(emu, rtcHours), byte(0))
	test.ExpectEquality(t, readRTC(emu, rtcDayLow), byte(0))
	test.ExpectEquality(t, readRTC(emu, rtcDayHigh), byte(rtcCarryBit))

	// carry stays until written
	emu.Tick(24 * time.Hour)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcDayLow), byte(1))
	test.ExpectEquality(t, readRTC(emu, rtcDayHigh), byte(rtcCarryBit))
	writeRTC(emu, rtcDayHigh, 0x00)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcDayHigh), byte(0))
}

func TestRTCSecondsWriteResetsSubSecond(t *testing.T) {
	emu := newRTCEmu(t)
	emu.Tick(700 * time.Millisecond)
	writeRTC(emu, rtcSeconds, 0)
	emu.Tick(700 * time.Millisecond)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(0))
	emu.Tick(300 * time.Millisecond)
	latch(emu)
	test.ExpectEquality(t, readRTC(emu, rtcSeconds), byte(1))
}

func TestRTCOutOfRange(t *testing.T) {
	var r rtc

	// counts up to the register width and wraps without carrying
	r.Seconds = 61
	r.advance(3 * time.Second)
	test.ExpectEquality(t, r.Seconds, byte(0))
	test.ExpectEquality(t, r.Minutes, byte(0))

	r.advance(60 * time.Second)
	test.ExpectEquality(t, r.Seconds, byte(0))
	test.ExpectEquality(t, r.Minutes, byte(1))

	r = rtc{Hours: 30}
	r.advance(time.Hour)
	test.ExpectEquality(t, r.Hours, byte(31))
	r.advance(time.Hour)
	test.ExpectEquality(t, r.Hours, byte(0))
	test.ExpectEquality(t, r.Days, uint16(0))
}

func TestRTCLongAdvance(t *testing.T) {
	var r rtc
	r.advance(600*24*time.Hour + 90*time.Minute + 5*time.Second)
	test.ExpectEquality(t, r.Days, uint16(600-512))
	test.ExpectEquality(t, r.Hours, byte(1))
	test.ExpectEquality(t, r.Minutes, byte(30))
	test.ExpectEquality(t, r.Seconds, byte(5))
	test.ExpectSuccess(t, r.DayCarry)
}

func TestRTCFooter(t *testing.T) {
	r := rtc{Seconds: 1, Minutes: 2, Hours: 3, Days: 0x104, Halted: true}
	r.Latched = [rtcNumRegs]byte{9, 8, 7, 6, 5}
	saved := time.Unix(1700000000, 0)

	footer := r.marshalFooter(saved)
	test.DemandEquality(t, len(footer), rtcFooterSize)
	test.ExpectEquality(t, footer[16], byte(0x41), "day high with halt")

	var got rtc
	when, err := got.unmarshalFooter(footer)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, when.Unix(), saved.Unix())
	test.ExpectEquality(t, got.Seconds, byte(1))
	test.ExpectEquality(t, got.Minutes, byte(2))
	test.ExpectEquality(t, got.Hours, byte(3))
	test.ExpectEquality(t, got.Days, uint16(0x104))
	test.ExpectSuccess(t, got.Halted)
	test.ExpectEquality(t, got.Latched, r.Latched)

	// older saves with a 32 bit timestamp
	var old rtc
	when, err = old.unmarshalFooter(footer[:rtcFooterSize32])
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, when.Unix(), saved.Unix())

	_, err = old.unmarshalFooter(footer[:10])
	test.ExpectFailure(t, err)
}

func TestRTCRestoreTrackRealTime(t *testing.T) {
	now := time.Unix(0, 0)

	var r rtc
	r.restore(now, time.Now().Add(-2*time.Hour), true)
	test.ExpectEquality(t, r.Hours, byte(2))
	test.ExpectEquality(t, r.LastSync, now)

	r = rtc{Halted: true}
	r.restore(now, time.Now().Add(-2*time.Hour), true)
	test.ExpectEquality(t, r.Hours, byte(0), "halted")

	r = rtc{}
	r.restore(now, time.Now().Add(-2*time.Hour), false)
	test.ExpectEquality(t, r.Hours, byte(0), "not tracking")
}

func TestTickClock(t *testing.T) {
	c := NewTickClock()
	start := c.Now()
	c.Advance(time.Minute)
	c.Advance(-time.Hour)
	test.ExpectEquality(t, c.Now().Sub(start), time.Minute)
}
