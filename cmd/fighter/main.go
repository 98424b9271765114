package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gridfighter/config"
	"gridfighter/core"
	"gridfighter/debug"
	"gridfighter/menu"
	"gridfighter/midi"
	"gridfighter/panel"
)

func main() {
	port := flag.String("port", "fighter", "substring of the MIDI port to attach to")
	debugLog := flag.Bool("debug", false, "enable debug logging")
	bootMenu := flag.Bool("menu", false, "enter the configuration menu before starting")
	flag.Parse()

	if *debugLog {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	transport := midi.NewPortTransport(*port)

	// The software panel stands in for the key matrix, expansion port, LED
	// chip and watchdog when running host-side.
	sim := panel.NewSim()
	if *bootMenu {
		sim.SetKeys(0x0001)
	}

	sup := core.NewSupervisor(cfg, core.Collaborators{
		Transport:  transport,
		Keys:       sim,
		Expansion:  sim,
		LEDs:       sim,
		Watchdog:   sim,
		Bootloader: sim,
		Sysex:      sim,
		Menu:       menu.Menu{},
	})

	if action := sup.Boot(); action == core.BootFirmwareUpdate {
		fmt.Println("firmware update mode requested, exiting")
		return
	}
	sim.SetKeys(0x0000)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go transport.Run(ctx)

	fmt.Println("gridfighter")
	fmt.Printf("Waiting for a MIDI port matching %q - plug in any time\n", *port)
	fmt.Println("")

	sup.Run(ctx)
}
