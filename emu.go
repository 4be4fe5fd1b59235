package dmgmem

import (
	"fmt"
	"time"

	"github.com/theinternetftw/dmgmem/logger"
)

// Emulator exposes the memory map of one loaded cart to the rest of an
// emulator: the cpu core calls Read/Write, the frame loop calls HBlank and
// Tick, the platform layer polls the rumble motor.
type Emulator interface {
	Read(addr uint16) byte
	Write(addr uint16, val byte)

	// HBlank moves one unit of a pending hblank dma and reports whether
	// more remains
	HBlank() bool

	// Tick tells the cart clock that dt of host time passed
	Tick(dt time.Duration)

	RumbleEngaged() bool
	RumbleStrength() float64

	CartInfo() *CartInfo

	GetCartRAM() []byte
	SetCartRAM([]byte) error

	MakeSnapshot() []byte
	LoadSnapshot([]byte) (Emulator, error)
}

// Options covers the choices owned by whoever runs the session. The zero
// value is usable.
type Options struct {
	// Clock feeds the RTC. Defaults to a TickClock driven by Tick.
	Clock Clock

	// TrackRealTime adds host time that passed while the emulator wasn't
	// running to the RTC when a snapshot or save file is loaded.
	TrackRealTime bool

	// IO handles device registers the core doesn't own. Defaults to a
	// plain register file.
	IO IOHandler
}

type emuState struct {
	Mem mem
	DMA hdma

	opts Options
}

// NewEmulator creates an emulation session for a cart image. The only error
// is a header that can't be loaded (see ErrInvalidHeader).
func NewEmulator(cart []byte, opts Options) (Emulator, error) {
	cartInfo, err := ParseCartInfo(cart)
	if err != nil {
		return nil, err
	}
	return newState(cart, cartInfo, opts), nil
}

func newState(romBytes []byte, cartInfo *CartInfo, opts Options) *emuState {
	if len(romBytes) < cartInfo.GetROMSize() {
		logger.Logf("cart", "rom image is %d bytes, header says %d", len(romBytes), cartInfo.GetROMSize())
	}
	if opts.Clock == nil {
		opts.Clock = NewTickClock()
	}
	emu := emuState{
		Mem: mem{
			mbc:     makeMBC(cartInfo),
			cart:    cartInfo,
			rom:     romBytes,
			clock:   opts.Clock,
			io:      opts.IO,
			CartRAM: make([]byte, cartInfo.RAMSize),
		},
		opts: opts,
	}
	emu.Mem.mbc.Init(&emu.Mem)
	return &emu
}

func (emu *emuState) Read(addr uint16) byte       { return emu.read(addr) }
func (emu *emuState) Write(addr uint16, val byte) { emu.write(addr, val) }
func (emu *emuState) CartInfo() *CartInfo         { return emu.Mem.cart }
func (emu *emuState) RumbleEngaged() bool         { return emu.Mem.Rumble.Motor }
func (emu *emuState) RumbleStrength() float64     { return emu.Mem.Rumble.strength() }
func (emu *emuState) MakeSnapshot() []byte        { return emu.makeSnapshot() }

func (emu *emuState) LoadSnapshot(snapBytes []byte) (Emulator, error) {
	newState, err := emu.loadSnapshot(snapBytes)
	if err != nil {
		return nil, err
	}
	return newState, nil
}

// HBlank only moves hblank-paced transfers; general ones finish on the
// register write.
func (emu *emuState) HBlank() bool {
	if !emu.DMA.HBlankPaced {
		return false
	}
	return emu.advanceDMAUnit()
}

func (emu *emuState) Tick(dt time.Duration) {
	if t, ok := emu.Mem.clock.(Ticker); ok {
		t.Advance(dt)
	}
	if m, ok := emu.Mem.mbc.(*mbc3); ok {
		m.tick(&emu.Mem, emu.Mem.clock.Now())
	}
}

// cartClock returns the RTC on carts that have one
func (emu *emuState) cartClock() *rtc {
	if m, ok := emu.Mem.mbc.(*mbc3); ok {
		return m.cartClock(&emu.Mem)
	}
	return nil
}

// GetCartRAM returns a copy of cart ram for a battery save, with the RTC
// footer appended on clock carts.
func (emu *emuState) GetCartRAM() []byte {
	ram := make([]byte, len(emu.Mem.CartRAM))
	copy(ram, emu.Mem.CartRAM)
	if r := emu.cartClock(); r != nil {
		r.sync(emu.Mem.clock.Now())
		ram = append(ram, r.marshalFooter(time.Now())...)
	}
	return ram
}

// SetCartRAM loads a battery save
func (emu *emuState) SetCartRAM(ram []byte) error {
	ramSize := len(emu.Mem.CartRAM)
	if r := emu.cartClock(); r != nil && len(ram) > ramSize {
		saved, err := r.unmarshalFooter(ram[ramSize:])
		if err != nil {
			return fmt.Errorf("sav: %v", err)
		}
		r.restore(emu.Mem.clock.Now(), saved, emu.opts.TrackRealTime)
		ram = ram[:ramSize]
	}
	if len(ram) != ramSize {
		return fmt.Errorf("sav: ram size mismatch, got %d bytes, cart has %d", len(ram), ramSize)
	}
	copy(emu.Mem.CartRAM, ram)
	logger.Logf("sav", "loaded %d bytes of cart ram", ramSize)
	return nil
}
