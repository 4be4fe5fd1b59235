package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/theinternetftw/dmgmem"
)

// runner replays a memory script against an emulator. One command per line,
// numbers in hex, '#' starts a comment:
//
//	w 2000 05        write
//	r 4000           read, prints the value
//	dump c000 20     hex dump through the memory map
//	hblank           one hdma unit
//	hblanks          hdma units until done
//	tick 10s         advance the cart clock
//	rumble           print motor state and strength
//	save FILE        write a snapshot
//	load FILE        replace the session with a snapshot
type runner struct {
	emu dmgmem.Emulator
	out io.Writer
}

func (r *runner) run(script io.Reader) error {
	scanner := bufio.NewScanner(script)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := r.exec(fields); err != nil {
			return fmt.Errorf("line %d: %v", lineNum, err)
		}
	}
	return scanner.Err()
}

func (r *runner) exec(fields []string) error {
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "w":
		if len(args) != 2 {
			return fmt.Errorf("usage: w ADDR VAL")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		val, err := parseByte(args[1])
		if err != nil {
			return err
		}
		r.emu.Write(addr, val)
	case "r":
		if len(args) != 1 {
			return fmt.Errorf("usage: r ADDR")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%04x = %02x\n", addr, r.emu.Read(addr))
	case "dump":
		if len(args) != 2 {
			return fmt.Errorf("usage: dump ADDR LEN")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(args[1], 16, 17)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = r.emu.Read(addr + uint16(i))
		}
		io.WriteString(r.out, hex.Dump(buf))
	case "hblank":
		fmt.Fprintf(r.out, "hdma pending: %v\n", r.emu.HBlank())
	case "hblanks":
		n := 1
		for r.emu.HBlank() {
			n++
		}
		fmt.Fprintf(r.out, "hdma idle after %d hblanks\n", n)
	case "tick":
		if len(args) != 1 {
			return fmt.Errorf("usage: tick DURATION")
		}
		dt, err := time.ParseDuration(args[0])
		if err != nil {
			return err
		}
		r.emu.Tick(dt)
	case "rumble":
		fmt.Fprintf(r.out, "rumble: %v (%.2f)\n", r.emu.RumbleEngaged(), r.emu.RumbleStrength())
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save FILE")
		}
		return os.WriteFile(args[0], r.emu.MakeSnapshot(), 0644)
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load FILE")
		}
		snap, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		emu, err := r.emu.LoadSnapshot(snap)
		if err != nil {
			return err
		}
		r.emu = emu
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	return uint16(v), err
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	return byte(v), err
}
