package dmgmem

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/theinternetftw/dmgmem/logger"
)

// ErrInvalidHeader is returned (wrapped) when a cart header can't be used
var ErrInvalidHeader = errors.New("invalid cart header")

// Family is the kind of bank controller on the cart
type Family int

// Controller families. FamilyMBC1M is an MBC1 wired for multicarts.
const (
	FamilyNone Family = iota
	FamilyMBC1
	FamilyMBC2
	FamilyMBC3
	FamilyMBC5
	FamilyHuC1
	FamilyMBC1M
)

var familyNames = map[Family]string{
	FamilyNone:  "ROM",
	FamilyMBC1:  "MBC1",
	FamilyMBC2:  "MBC2",
	FamilyMBC3:  "MBC3",
	FamilyMBC5:  "MBC5",
	FamilyHuC1:  "HuC1",
	FamilyMBC1M: "MBC1M",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

const (
	romBankSize = 16 * 1024
	ramBankSize = 8 * 1024

	headerSize = 0x150

	headerTitle        = 0x134
	headerCGBFlag      = 0x143
	headerCartType     = 0x147
	headerROMSize      = 0x148
	headerRAMSize      = 0x149
	headerChecksumAddr = 0x14d
)

// CartInfo represents a parsed game boy cart header. It is never changed
// after ParseCartInfo.
type CartInfo struct {
	Title    string
	CartType byte
	Family   Family

	ROMBanks int
	RAMBanks int
	RAMSize  int

	HasRAM     bool
	HasBattery bool
	HasRTC     bool
	HasRumble  bool
	IsCGB      bool

	HeaderChecksum   byte
	HeaderChecksumOK bool
}

type cartTypeInfo struct {
	family  Family
	ram     bool
	battery bool
	rtc     bool
	rumble  bool
}

var cartTypes = map[byte]cartTypeInfo{
	0x00: {family: FamilyNone},
	0x01: {family: FamilyMBC1},
	0x02: {family: FamilyMBC1, ram: true},
	0x03: {family: FamilyMBC1, ram: true, battery: true},
	0x05: {family: FamilyMBC2},
	0x06: {family: FamilyMBC2, battery: true},
	0x08: {family: FamilyNone, ram: true},
	0x09: {family: FamilyNone, ram: true, battery: true},
	0x0f: {family: FamilyMBC3, rtc: true, battery: true},
	0x10: {family: FamilyMBC3, rtc: true, ram: true, battery: true},
	0x11: {family: FamilyMBC3},
	0x12: {family: FamilyMBC3, ram: true},
	0x13: {family: FamilyMBC3, ram: true, battery: true},
	0x19: {family: FamilyMBC5},
	0x1a: {family: FamilyMBC5, ram: true},
	0x1b: {family: FamilyMBC5, ram: true, battery: true},
	0x1c: {family: FamilyMBC5, rumble: true},
	0x1d: {family: FamilyMBC5, ram: true, rumble: true},
	0x1e: {family: FamilyMBC5, ram: true, battery: true, rumble: true},
	0xff: {family: FamilyHuC1, ram: true, battery: true},
}

// max banks actually wired on each controller
var familyLimits = map[Family]struct{ rom, ram int }{
	FamilyNone:  {rom: 2, ram: 1},
	FamilyMBC1:  {rom: 128, ram: 4},
	FamilyMBC1M: {rom: 128, ram: 4},
	FamilyMBC2:  {rom: 16, ram: 1},
	FamilyMBC3:  {rom: 256, ram: 8},
	FamilyMBC5:  {rom: 512, ram: 16},
	FamilyHuC1:  {rom: 64, ram: 4},
}

// ram size code -> (banks, bytes)
var ramSizes = map[byte]struct{ banks, size int }{
	0x00: {0, 0},
	0x01: {1, 2 * 1024},
	0x02: {1, 8 * 1024},
	0x03: {4, 32 * 1024},
	0x04: {16, 128 * 1024},
	0x05: {8, 64 * 1024},
}

// MBC2 has 512 half-byte cells built in, stored one per byte
const mbc2RAMSize = 512

// ParseCartInfo parses a game boy cart header. cartBytes may be just the
// header or the whole ROM; with the whole ROM, MBC1 multicarts are detected.
func ParseCartInfo(cartBytes []byte) (*CartInfo, error) {
	if len(cartBytes) < headerSize {
		return nil, fmt.Errorf("%w: rom file too short (%d bytes)", ErrInvalidHeader, len(cartBytes))
	}

	cartType := cartBytes[headerCartType]
	typeInfo, ok := cartTypes[cartType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported cart type 0x%02x", ErrInvalidHeader, cartType)
	}

	romCode := cartBytes[headerROMSize]
	if romCode > 0x08 {
		return nil, fmt.Errorf("%w: unsupported rom size code 0x%02x", ErrInvalidHeader, romCode)
	}
	ramCode := cartBytes[headerRAMSize]
	ramSize, ok := ramSizes[ramCode]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported ram size code 0x%02x", ErrInvalidHeader, ramCode)
	}

	cart := CartInfo{
		Title:          parseTitle(cartBytes),
		CartType:       cartType,
		Family:         typeInfo.family,
		ROMBanks:       2 << romCode,
		HasBattery:     typeInfo.battery,
		HasRTC:         typeInfo.rtc,
		HasRumble:      typeInfo.rumble,
		IsCGB:          cartBytes[headerCGBFlag]&0x80 != 0,
		HeaderChecksum: cartBytes[headerChecksumAddr],
	}

	switch {
	case cart.Family == FamilyMBC2:
		if ramCode != 0 {
			return nil, fmt.Errorf("%w: MBC2 cart declares external ram (code 0x%02x)", ErrInvalidHeader, ramCode)
		}
		cart.HasRAM = true
		cart.RAMBanks = 1
		cart.RAMSize = mbc2RAMSize
	case typeInfo.ram && ramSize.banks > 0:
		cart.HasRAM = true
		cart.RAMBanks = ramSize.banks
		cart.RAMSize = ramSize.size
	}

	if cart.Family == FamilyMBC1 && isMBC1Multicart(cartBytes) {
		cart.Family = FamilyMBC1M
	}

	limits := familyLimits[cart.Family]
	if cart.ROMBanks > limits.rom {
		return nil, fmt.Errorf("%w: %v cart can't address %d rom banks", ErrInvalidHeader, cart.Family, cart.ROMBanks)
	}
	if cart.RAMBanks > limits.ram {
		return nil, fmt.Errorf("%w: %v cart can't address %d ram banks", ErrInvalidHeader, cart.Family, cart.RAMBanks)
	}

	cart.HeaderChecksumOK = headerChecksum(cartBytes) == cart.HeaderChecksum
	if !cart.HeaderChecksumOK {
		logger.Logf("cart", "header checksum mismatch for %q (want 0x%02x)", cart.Title, cart.HeaderChecksum)
	}

	return &cart, nil
}

func parseTitle(cartBytes []byte) string {
	end := 0x144
	if cartBytes[headerCGBFlag]&0x80 != 0 {
		end = 0x143
	}
	title := cartBytes[headerTitle:end]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(string(title))
}

func headerChecksum(cartBytes []byte) byte {
	var sum byte
	for _, b := range cartBytes[0x134:0x14d] {
		sum = sum - b - 1
	}
	return sum
}

var bootLogo = []byte{
	0xce, 0xed, 0x66, 0x66, 0xcc, 0x0d, 0x00, 0x0b, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0c, 0x00, 0x0d, 0x00, 0x08, 0x11, 0x1f, 0x88, 0x89, 0x00, 0x0e,
	0xdc, 0xcc, 0x6e, 0xe6, 0xdd, 0xdd, 0xd9, 0x99, 0xbb, 0xbb, 0x67, 0x63,
	0x6e, 0x0e, 0xec, 0xcc, 0xdd, 0xdc, 0x99, 0x9f, 0xbb, 0xb9, 0x33, 0x3e,
}

// a 1MB MBC1 cart with the boot logo at the start of more than one 256KB
// quarter is a multicart, with the upper bank bits wired one lower.
func isMBC1Multicart(cartBytes []byte) bool {
	const quarter = 0x40000
	if len(cartBytes) != 4*quarter {
		return false
	}
	count := 0
	for q := 0; q < 4; q++ {
		if bytes.Equal(cartBytes[q*quarter+0x104:q*quarter+0x134], bootLogo) {
			count++
		}
	}
	return count > 1
}

// GetROMSize returns the rom size in bytes
func (cart *CartInfo) GetROMSize() int {
	return cart.ROMBanks * romBankSize
}

// IsBatteryBacked reports whether cart ram (or the RTC) should be persisted
func (cart *CartInfo) IsBatteryBacked() bool {
	return cart.HasBattery && (cart.HasRAM || cart.HasRTC)
}

func (cart *CartInfo) String() string {
	return fmt.Sprintf("%q %v (type 0x%02x) rom:%dKiB/%d banks ram:%dKiB/%d banks",
		cart.Title, cart.Family, cart.CartType,
		cart.GetROMSize()/1024, cart.ROMBanks, cart.RAMSize/1024, cart.RAMBanks)
}
