package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"gitlab.com/gomidi/midi/v2"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "watch":
		watch()
	case "note":
		sendNote()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI ports")
	fmt.Println("  watch [port#]   - Print inbound messages from a port")
	fmt.Println("  note [port#]    - Send a test note to a port")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range midi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range midi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func portArg() int {
	if len(os.Args) < 3 {
		return 0
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil {
		return 0
	}
	return n
}

func watch() {
	ins := midi.GetInPorts()
	idx := portArg()
	if idx < 0 || idx >= len(ins) {
		fmt.Println("no such input port")
		return
	}

	stop, err := midi.ListenTo(ins[idx], func(msg midi.Message, timestampms int32) {
		fmt.Printf("%8dms  % X  %s\n", timestampms, []byte(msg), msg.String())
	}, midi.UseSysEx())
	if err != nil {
		fmt.Printf("listen: %v\n", err)
		return
	}
	defer stop()

	fmt.Printf("watching %s, ctrl+c to stop\n", ins[idx].String())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func sendNote() {
	outs := midi.GetOutPorts()
	idx := portArg()
	if idx < 0 || idx >= len(outs) {
		fmt.Println("no such output port")
		return
	}

	send, err := midi.SendTo(outs[idx])
	if err != nil {
		fmt.Printf("open: %v\n", err)
		return
	}

	fmt.Printf("sending C2 to %s\n", outs[idx].String())
	send(midi.NoteOn(0, 36, 127))
	time.Sleep(300 * time.Millisecond)
	send(midi.NoteOff(0, 36))
}
