package dmgmem

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/theinternetftw/dmgmem/logger"
)

// Clock is where the RTC gets host time from
type Clock interface {
	Now() time.Time
}

// Ticker is a Clock that only moves when told to. Emulator.Tick advances
// any Clock that implements it.
type Ticker interface {
	Clock
	Advance(dt time.Duration)
}

// WallClock is the host's real time
type WallClock struct{}

// Now implements Clock
func (WallClock) Now() time.Time { return time.Now() }

// TickClock is a Clock driven by Emulator.Tick. It is the default, so a
// paused emulator also pauses the cart clock.
type TickClock struct {
	now time.Time
}

// NewTickClock returns a TickClock starting at the unix epoch
func NewTickClock() *TickClock {
	return &TickClock{now: time.Unix(0, 0)}
}

// Now implements Clock
func (c *TickClock) Now() time.Time { return c.now }

// Advance implements Ticker
func (c *TickClock) Advance(dt time.Duration) {
	if dt > 0 {
		c.now = c.now.Add(dt)
	}
}

// rtc register selectors, as written to 0x4000-0x5fff minus 0x08
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh
	rtcNumRegs
)

const (
	rtcDayHighBit = 0x01
	rtcHaltBit    = 0x40
	rtcCarryBit   = 0x80
)

// rtc is the MBC3 clock. The live registers count; guest reads only ever
// see Latched, which changes only on the 0 then 1 latch sequence.
type rtc struct {
	Seconds  byte
	Minutes  byte
	Hours    byte
	Days     uint16 // 9 bits
	Halted   bool
	DayCarry bool

	SubSecond time.Duration
	LastSync  time.Time

	Latched     [rtcNumRegs]byte
	LatchPrimed bool
}

func (r *rtc) dayHigh() byte {
	val := byte(r.Days>>8) & rtcDayHighBit
	if r.Halted {
		val |= rtcHaltBit
	}
	if r.DayCarry {
		val |= rtcCarryBit
	}
	return val
}

func (r *rtc) liveRegs() [rtcNumRegs]byte {
	return [rtcNumRegs]byte{r.Seconds, r.Minutes, r.Hours, byte(r.Days), r.dayHigh()}
}

// sync brings the live registers up to now
func (r *rtc) sync(now time.Time) {
	if r.Halted || now.Before(r.LastSync) {
		r.LastSync = now
		return
	}
	elapsed := now.Sub(r.LastSync)
	r.LastSync = now
	r.advance(elapsed)
}

func (r *rtc) advance(d time.Duration) {
	if d <= 0 {
		return
	}
	d += r.SubSecond
	r.SubSecond = d % time.Second
	r.advanceSeconds(uint64(d / time.Second))
}

func (r *rtc) inRange() bool {
	return r.Seconds < 60 && r.Minutes < 60 && r.Hours < 24
}

func (r *rtc) advanceSeconds(n uint64) {
	// registers written out of range count up to their width and wrap
	// without carrying, so walk them back into range first
	for n > 0 && !r.inRange() {
		r.stepSecond()
		n--
	}
	if n == 0 {
		return
	}

	total := n + uint64(r.Seconds) + 60*uint64(r.Minutes) + 3600*uint64(r.Hours)
	r.Seconds = byte(total % 60)
	total /= 60
	r.Minutes = byte(total % 60)
	total /= 60
	r.Hours = byte(total % 24)
	r.addDays(total / 24)
}

func (r *rtc) addDays(n uint64) {
	days := uint64(r.Days) + n
	if days > 511 {
		r.DayCarry = true
		days %= 512
	}
	r.Days = uint16(days)
}

func (r *rtc) stepSecond() {
	r.Seconds = (r.Seconds + 1) & 0x3f
	if r.Seconds == 60 {
		r.Seconds = 0
		r.Minutes = (r.Minutes + 1) & 0x3f
		if r.Minutes == 60 {
			r.Minutes = 0
			r.Hours = (r.Hours + 1) & 0x1f
			if r.Hours == 24 {
				r.Hours = 0
				r.addDays(1)
			}
		}
	}
}

// latchWrite handles a write to 0x6000-0x7fff
func (r *rtc) latchWrite(val byte, now time.Time) {
	if r.LatchPrimed && val == 0x01 {
		r.latch(now)
	}
	r.LatchPrimed = val == 0x00
}

func (r *rtc) latch(now time.Time) {
	r.sync(now)
	r.Latched = r.liveRegs()
}

func (r *rtc) readRegister(sel int, now time.Time) byte {
	r.sync(now)
	return r.Latched[sel]
}

func (r *rtc) writeRegister(sel int, val byte, now time.Time) {
	r.sync(now)
	switch sel {
	case rtcSeconds:
		r.Seconds = val & 0x3f
		r.SubSecond = 0
	case rtcMinutes:
		r.Minutes = val & 0x3f
	case rtcHours:
		r.Hours = val & 0x1f
	case rtcDayLow:
		r.Days = r.Days&0x100 | uint16(val)
	case rtcDayHigh:
		r.Days = r.Days&0xff | uint16(val&rtcDayHighBit)<<8
		r.DayCarry = val&rtcCarryBit != 0
		halt := val&rtcHaltBit != 0
		if r.Halted && !halt {
			r.LastSync = now
		}
		r.Halted = halt
	default:
		logger.Logf("rtc", "write to unknown register %d", sel)
	}
}

// the battery save footer most emulators agree on: live then latched
// registers as little-endian uint32s, then the unix time of the save
const (
	rtcFooterSize   = 48
	rtcFooterSize32 = 44
)

func (r *rtc) marshalFooter(saved time.Time) []byte {
	footer := make([]byte, rtcFooterSize)
	live := r.liveRegs()
	for i := 0; i < rtcNumRegs; i++ {
		binary.LittleEndian.PutUint32(footer[i*4:], uint32(live[i]))
		binary.LittleEndian.PutUint32(footer[20+i*4:], uint32(r.Latched[i]))
	}
	binary.LittleEndian.PutUint64(footer[40:], uint64(saved.Unix()))
	return footer
}

// unmarshalFooter restores the registers and returns the time of the save
func (r *rtc) unmarshalFooter(footer []byte) (time.Time, error) {
	var saved int64
	switch len(footer) {
	case rtcFooterSize:
		saved = int64(binary.LittleEndian.Uint64(footer[40:]))
	case rtcFooterSize32:
		saved = int64(binary.LittleEndian.Uint32(footer[40:]))
	default:
		return time.Time{}, fmt.Errorf("rtc footer has bad size %d", len(footer))
	}

	var live [rtcNumRegs]byte
	for i := 0; i < rtcNumRegs; i++ {
		live[i] = byte(binary.LittleEndian.Uint32(footer[i*4:]))
		r.Latched[i] = byte(binary.LittleEndian.Uint32(footer[20+i*4:]))
	}
	r.Seconds = live[rtcSeconds] & 0x3f
	r.Minutes = live[rtcMinutes] & 0x3f
	r.Hours = live[rtcHours] & 0x1f
	r.Days = uint16(live[rtcDayLow]) | uint16(live[rtcDayHigh]&rtcDayHighBit)<<8
	r.Halted = live[rtcDayHigh]&rtcHaltBit != 0
	r.DayCarry = live[rtcDayHigh]&rtcCarryBit != 0
	r.SubSecond = 0

	return time.Unix(saved, 0), nil
}

// restore re-anchors the clock after a snapshot or save file load. With
// trackRealTime, time that passed on the host since saved is added.
func (r *rtc) restore(now time.Time, saved time.Time, trackRealTime bool) {
	r.LastSync = now
	if trackRealTime && !r.Halted {
		if away := time.Since(saved); away > 0 {
			r.advance(away)
		}
	}
}
