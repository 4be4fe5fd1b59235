package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theinternetftw/dmgmem"
	"github.com/theinternetftw/dmgmem/test"
)

// testROM is a 4 bank MBC1 cart with 8KB of ram and the bank number in the
// first byte of every bank
func testROM(cgb bool) []byte {
	rom := make([]byte, 4*0x4000)
	for b := 0; b < 4; b++ {
		rom[b*0x4000] = byte(b)
	}
	if cgb {
		rom[0x143] = 0x80
	}
	rom[0x147] = 0x03
	rom[0x148] = 0x01
	rom[0x149] = 0x02
	return rom
}

func newRunner(t *testing.T, cgb bool) (*runner, *bytes.Buffer) {
	t.Helper()
	emu, err := dmgmem.NewEmulator(testROM(cgb), dmgmem.Options{})
	test.DemandSuccess(t, err)
	out := &bytes.Buffer{}
	return &runner{emu: emu, out: out}, out
}

func TestScript(t *testing.T) {
	r, out := newRunner(t, false)
	script := `
# bank switching
w 2000 02
r 4000

w 0000 0x0a   # enable ram
w a000 5a
r a000
rumble
`
	test.DemandSuccess(t, r.run(strings.NewReader(script)))
	test.ExpectEquality(t, out.String(), "4000 = 02\na000 = 5a\nrumble: false (0.00)\n")
}

func TestScriptDump(t *testing.T) {
	r, out := newRunner(t, false)
	test.DemandSuccess(t, r.run(strings.NewReader("w c000 41\nw c001 42\ndump c000 2\n")))
	test.ExpectSuccess(t, strings.Contains(out.String(), "41 42"), out.String())
	test.ExpectSuccess(t, strings.Contains(out.String(), "|AB|"), out.String())
}

func TestScriptHBlanks(t *testing.T) {
	r, out := newRunner(t, true)
	script := `
w ff51 c0
w ff52 00
w ff53 80
w ff54 00
w ff55 81
hblank
hblanks
`
	test.DemandSuccess(t, r.run(strings.NewReader(script)))
	test.ExpectEquality(t, out.String(), "hdma pending: true\nhdma idle after 1 hblanks\n")
}

func TestScriptSnapshot(t *testing.T) {
	r, out := newRunner(t, false)
	snapFile := filepath.Join(t.TempDir(), "state.snap")
	script := "w c000 01\nsave " + snapFile + "\nw c000 02\nload " + snapFile + "\nr c000\n"
	test.DemandSuccess(t, r.run(strings.NewReader(script)))
	test.ExpectEquality(t, out.String(), "c000 = 01\n")
}

func TestScriptErrors(t *testing.T) {
	cases := map[string]string{
		"w 2000\n":            "line 1: usage: w ADDR VAL",
		"\nbogus\n":           "line 2: unknown command \"bogus\"",
		"r 10000\n":           "line 1: ",
		"w c000 100\n":        "line 1: ",
		"tick soon\n":         "line 1: ",
		"load /nonexistent\n": "line 1: ",
	}
	for script, prefix := range cases {
		r, _ := newRunner(t, false)
		err := r.run(strings.NewReader(script))
		if !test.ExpectFailure(t, err, script) {
			continue
		}
		test.ExpectSuccess(t, strings.HasPrefix(err.Error(), prefix), err.Error())
	}
}

func TestParseAddr(t *testing.T) {
	addr, err := parseAddr("0xff55")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, addr, uint16(0xff55))

	addr, err = parseAddr("a000")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, addr, uint16(0xa000))

	_, err = parseByte("zz")
	test.ExpectFailure(t, err)
}
