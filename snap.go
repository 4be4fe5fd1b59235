package dmgmem

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/theinternetftw/dmgmem/logger"
)

const currentSnapshotVersion = 1

const infoString = "dmgmem snapshot"

type snapshot struct {
	Version int
	Info    string
	SavedAt time.Time
	State   json.RawMessage
	MBC     marshalledMBC
}

func (emu *emuState) loadSnapshot(snapBytes []byte) (*emuState, error) {
	var err error
	var reader io.Reader
	var unpackedBytes []byte
	var snap snapshot
	if reader, err = gzip.NewReader(bytes.NewReader(snapBytes)); err != nil {
		return nil, err
	} else if unpackedBytes, err = io.ReadAll(reader); err != nil {
		return nil, err
	} else if err = json.Unmarshal(unpackedBytes, &snap); err != nil {
		return nil, err
	} else if snap.Version < currentSnapshotVersion {
		return emu.convertOldSnapshot(&snap)
	} else if snap.Version > currentSnapshotVersion {
		return nil, fmt.Errorf("this version of dmgmem is too old to open this snapshot")
	}

	return emu.convertLatestSnapshot(&snap)
}

func (emu *emuState) convertLatestSnapshot(snap *snapshot) (*emuState, error) {
	return emu.unpackState(snap, snap.State)
}

var snapshotConverters = map[int]func([]byte) []byte{
	// If new field can be zero, no need for converter.
	// Converters should look like this (including comment):
	// added 2026-XX-XX
	// 1: func(stateBytes []byte) []byte {
	// 	stateBytes = stateBytes[:len(stateBytes)-1]
	// 	return append(stateBytes, []byte(",\"ExampleNewField\":0}")...)
	// },
}

func (emu *emuState) convertOldSnapshot(snap *snapshot) (*emuState, error) {
	// converting through map[string]interface{} loses the struct layout, so
	// old states are patched as raw json
	stateBytes := []byte(snap.State)

	for i := snap.Version; i < currentSnapshotVersion; i++ {
		converterFn, ok := snapshotConverters[i]
		if !ok {
			return nil, fmt.Errorf("unknown snapshot version: %v", snap.Version)
		}
		stateBytes = converterFn(stateBytes)
	}

	newState, err := emu.unpackState(snap, stateBytes)
	if err != nil {
		return nil, fmt.Errorf("post-convert unpack err: %v", err)
	}
	return newState, nil
}

// unpackState builds a session from saved state, reattaching what the
// snapshot doesn't carry (rom, header, clock, io) from the running session.
func (emu *emuState) unpackState(snap *snapshot, stateBytes []byte) (*emuState, error) {
	var err error
	var newState emuState
	if err = json.Unmarshal(stateBytes, &newState); err != nil {
		return nil, err
	} else if newState.Mem.mbc, err = unmarshalMBC(snap.MBC); err != nil {
		return nil, fmt.Errorf("unpack mbc err: %v", err)
	}

	// a snapshot from some other cart
	if fam := emu.Mem.cart.Family; snap.MBC.Family != fam {
		return nil, fmt.Errorf("snapshot is for a %v cart, this is %v", snap.MBC.Family, fam)
	}
	if len(newState.Mem.CartRAM) != len(emu.Mem.CartRAM) {
		return nil, fmt.Errorf("snapshot has %d bytes of cart ram, cart has %d", len(newState.Mem.CartRAM), len(emu.Mem.CartRAM))
	}

	newState.Mem.cart = emu.Mem.cart
	newState.Mem.rom = emu.Mem.rom
	newState.Mem.clock = emu.Mem.clock
	newState.Mem.io = emu.Mem.io
	newState.opts = emu.opts

	if r := newState.cartClock(); r != nil {
		r.restore(newState.Mem.clock.Now(), snap.SavedAt, newState.opts.TrackRealTime)
	}

	logger.Logf("snapshot", "loaded version %d snapshot from %v", snap.Version, snap.SavedAt.Format(time.RFC3339))
	return &newState, nil
}

func (emu *emuState) makeSnapshot() []byte {
	var err error
	var emuJSON []byte
	var snapJSON []byte
	if r := emu.cartClock(); r != nil {
		r.sync(emu.Mem.clock.Now())
	}
	if emuJSON, err = json.Marshal(emu); err != nil {
		panic(err)
	}
	snap := snapshot{
		Version: currentSnapshotVersion,
		Info:    infoString,
		SavedAt: time.Now(),
		State:   json.RawMessage(emuJSON),
		MBC:     emu.Mem.mbc.Marshal(),
	}
	if snapJSON, err = json.Marshal(&snap); err != nil {
		panic(err)
	}
	buf := &bytes.Buffer{}
	writer := gzip.NewWriter(buf)
	writer.Write(snapJSON)
	writer.Close()
	return buf.Bytes()
}
