package main

import (
	"github.com/theinternetftw/dmgmem"
	"github.com/theinternetftw/dmgmem/logger"
	"github.com/theinternetftw/dmgmem/profiling"

	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

func main() {

	defer profiling.Start().Stop()

	savFlag := flag.String("sav", "", "battery save file (default ROM_FILENAME.sav)")
	scriptFlag := flag.String("script", "", "memory script to replay, - for stdin")
	repeatFlag := flag.Int("repeat", 1, "times to replay the script, 0 for forever")
	realtimeFlag := flag.Bool("realtime", false, "catch the cart clock up with time spent not running")
	statsFlag := flag.Bool("statsview", false, "serve runtime stats while running")
	echoFlag := flag.Bool("echo", false, "echo the core log to stderr")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: ./dmgmem [flags] ROM_FILENAME")
		flag.PrintDefaults()
	}
	flag.Parse()

	assert(flag.NArg() == 1, "usage: ./dmgmem [flags] ROM_FILENAME")
	cartFilename := flag.Arg(0)

	if *echoFlag {
		logger.SetEcho(os.Stderr)
	}
	if *statsFlag {
		launchStatsview(os.Stdout)
	}

	romBytes, err := os.ReadFile(cartFilename)
	dieIf(err)

	emu, err := dmgmem.NewEmulator(romBytes, dmgmem.Options{
		TrackRealTime: *realtimeFlag,
	})
	dieIf(err)

	cartInfo := emu.CartInfo()
	fmt.Println("TITLE:", cartInfo.Title)
	fmt.Println("CONTROLLER:", cartInfo.Family)
	fmt.Println("ROM BANKS:", cartInfo.ROMBanks)
	fmt.Println("RAM BANKS:", cartInfo.RAMBanks)
	fmt.Println("RAM SIZE:", cartInfo.RAMSize)
	fmt.Println("RTC:", cartInfo.HasRTC, "RUMBLE:", cartInfo.HasRumble, "CGB:", cartInfo.IsCGB)
	if !cartInfo.HeaderChecksumOK {
		fmt.Println("WARNING: header checksum mismatch")
	}

	saveFilename := *savFlag
	if saveFilename == "" {
		saveFilename = cartFilename + ".sav"
	}
	if cartInfo.IsBatteryBacked() {
		if saveFile, err := os.ReadFile(saveFilename); err == nil {
			if err = emu.SetCartRAM(saveFile); err != nil {
				fmt.Println("error loading savefile,", err)
			} else {
				fmt.Println("loaded save!")
			}
		}
	}

	if *scriptFlag == "" {
		return
	}

	r := &runner{emu: emu, out: os.Stdout}
	lastRun := time.Now()
	for i := 0; *repeatFlag == 0 || i < *repeatFlag; i++ {
		script, closeFn, err := openScript(*scriptFlag)
		dieIf(err)
		err = r.run(script)
		closeFn()
		dieIf(err)

		// the cart clock keeps host time across replays
		now := time.Now()
		r.emu.Tick(now.Sub(lastRun))
		lastRun = now
	}

	if cartInfo.IsBatteryBacked() {
		dieIf(os.WriteFile(saveFilename, r.emu.GetCartRAM(), os.FileMode(0644)))
	}
}

func openScript(name string) (io.Reader, func(), error) {
	if name == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func assert(test bool, msg string) {
	if !test {
		fmt.Println(msg)
		os.Exit(1)
	}
}

func dieIf(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
