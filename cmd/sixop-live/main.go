package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/cmd"
	"github.com/sixop/sixop/control"
	"github.com/sixop/sixop/oto"
	"github.com/sixop/sixop/report"
	"github.com/sixop/sixop/version"
	"golang.org/x/term"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var defaultMidiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
var firstMidiInput = flag.Bool("first-midi-input", false, "connect the first MIDI input if none matches the prefix")
var presetName = flag.String("preset", "", "start from the named preset")
var sampleRate = flag.Int("rate", 44100, "sample rate")
var meterInterval = flag.Duration("meter", 0, "log the output meter at this interval; 0 disables")
var traceEdits = flag.Bool("trace-edits", false, "log the parameter edits applied by the audio thread")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	var f *os.File
	if *cpuprofile != "" {
		var err error
		f, err = os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}
	audioContext, err := oto.NewContext(*sampleRate)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	recoveryFile := ""
	if configDir, err := os.UserConfigDir(); err == nil {
		recoveryFile = filepath.Join(configDir, "sixop", "sixop-live-recovery.yml")
	}
	userDir, _ := control.UserPresetDir()
	var presets control.Presets
	presets.Load(userDir)

	broker := control.NewBroker()
	patch := sixop.NewPatch()
	model := control.NewModel(broker, patch)
	model.Diagnostics = log.Printf
	player := control.NewPlayer(broker, cmd.MainSynther, patch.Copy(), float64(*sampleRate))
	trace := newEditTrace()
	if *traceEdits {
		player.SetHostNotifier(trace)
	}

	midiContext := cmd.NewMidiContext(*sampleRate)
	defer midiContext.Close()
	if *defaultMidiInput != "" || *firstMidiInput {
		if err := midiContext.TryToOpenBy(*defaultMidiInput, *firstMidiInput); err != nil {
			log.Printf("failed to open MIDI input: %v", err)
		}
	}

	switch {
	case flag.NArg() > 0:
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Printf("could not read %v: %v", flag.Arg(0), err)
		} else if err := model.Load(data); err != nil {
			log.Printf("%v: %v", flag.Arg(0), err)
		}
	case *presetName != "":
		if p, ok := presets.Find(*presetName); ok {
			model.LoadPreset(p)
		} else {
			log.Printf("no preset named %q", *presetName)
		}
	case recoveryFile != "":
		if data, err := os.ReadFile(recoveryFile); err == nil {
			if err := model.Load(data); err != nil {
				log.Printf("recovery file: %v", err)
			}
		}
	}

	audioCloser := audioContext.Play(sixop.AudioSourceFunc(func(buf sixop.AudioBuffer) error {
		player.Process(buf, midiContext)
		return nil
	}))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	var meter <-chan time.Time
	if *meterInterval > 0 {
		t := time.NewTicker(*meterInterval)
		defer t.Stop()
		meter = t.C
	}
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Fprintf(os.Stderr, "sixop %v, type \"help\" for commands\n", version.VersionOrHash)
loop:
	for {
		select {
		case <-poll.C:
			model.Poll()
			trace.log()
		case <-meter:
			m := model.Meter()
			dropped := droppedCounts{Messages: model.Dropped(), Events: player.DroppedEvents(), Backlog: model.Backlog()}
			if tty {
				fmt.Println(renderMeter(m, dropped))
			} else {
				log.Printf("peak %.3f / %.3f, rms %.3f, voices %d, %s", m.PeakL, m.PeakR, m.RMS, m.ActiveVoices, dropped)
			}
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := execute(model, &presets, userDir, line); quit {
				break loop
			}
		case <-interrupt:
			break loop
		}
	}

	audioCloser.Close()
	model.Poll()
	if recoveryFile != "" {
		if data, err := model.Save(); err == nil {
			os.MkdirAll(filepath.Dir(recoveryFile), os.ModePerm)
			if err := os.WriteFile(recoveryFile, data, 0644); err != nil {
				log.Printf("could not write recovery file: %v", err)
			}
		}
	}
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
		f.Close()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}

const helpText = `commands:
  set <id> <value>      set a parameter
  get <id>              print a parameter
  on <note> [velocity]  play a note
  off <note>            release a note
  alloff                release every note
  panic                 silence everything
  preset <name>         load a preset
  store <name> [cat]    save the patch as a user preset
  load <file>           load a patch file
  save <file>           save the patch to a file
  reset                 reset every parameter
  report                print the non-default parameters
  quit                  exit`

// execute runs one command line. It returns true if the program should quit.
func execute(model *control.Model, presets *control.Presets, userDir, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	note := func(s string) (byte, bool) {
		n, err := strconv.ParseUint(s, 10, 7)
		if err != nil {
			log.Printf("invalid note %q", s)
			return 0, false
		}
		return byte(n), true
	}
	switch fields[0] {
	case "help":
		fmt.Println(helpText)
	case "quit", "exit":
		return true
	case "set":
		id, err1 := strconv.ParseUint(arg(1), 10, 32)
		v, err2 := strconv.ParseFloat(arg(2), 32)
		if err1 != nil || err2 != nil {
			log.Printf("usage: set <id> <value>")
			break
		}
		if err := model.BeginEdit(uint32(id)); err != nil {
			log.Printf("%v", err)
			break
		}
		model.SetParam(uint32(id), float32(v))
		model.EndEdit(uint32(id))
		if p, ok := model.Patch().Lookup(uint32(id)); ok {
			fmt.Printf("%s: %s\n", p.Meta.Group, p)
		}
	case "get":
		id, err := strconv.ParseUint(arg(1), 10, 32)
		if err != nil {
			log.Printf("usage: get <id>")
			break
		}
		if p, ok := model.Patch().Lookup(uint32(id)); ok {
			fmt.Printf("%s: %s\n", p.Meta.Group, p)
		} else {
			log.Printf("unknown parameter id %d", id)
		}
	case "on":
		n, ok := note(arg(1))
		if !ok {
			break
		}
		vel := uint64(100)
		if arg(2) != "" {
			var err error
			if vel, err = strconv.ParseUint(arg(2), 10, 7); err != nil || vel == 0 {
				log.Printf("invalid velocity %q", arg(2))
				break
			}
		}
		model.NoteOn(n, byte(vel))
	case "off":
		if n, ok := note(arg(1)); ok {
			model.NoteOff(n)
		}
	case "alloff":
		model.AllNotesOff()
	case "panic":
		model.Panic()
	case "preset":
		name := strings.TrimSpace(strings.TrimPrefix(line, "preset"))
		if p, ok := presets.Find(name); ok {
			model.LoadPreset(p)
		} else {
			log.Printf("no preset named %q", name)
		}
	case "store":
		if userDir == "" || arg(1) == "" {
			log.Printf("usage: store <name> [category]")
			break
		}
		p := control.NewPreset(arg(1), arg(2), model.Patch())
		path, err := control.SaveUserPreset(userDir, &p)
		if err != nil {
			log.Printf("%v", err)
			break
		}
		presets.Load(userDir)
		fmt.Printf("saved %v\n", path)
	case "load":
		data, err := os.ReadFile(arg(1))
		if err != nil {
			log.Printf("%v", err)
			break
		}
		if err := model.Load(data); err != nil {
			log.Printf("%v", err)
		}
	case "save":
		data, err := model.Save()
		if err == nil {
			err = os.WriteFile(arg(1), data, 0644)
		}
		if err != nil {
			log.Printf("could not save: %v", err)
		}
	case "reset":
		model.Reset()
	case "report":
		var b bytes.Buffer
		if err := report.Patch(&b, model.Patch(), model.Name()); err != nil {
			log.Printf("%v", err)
			break
		}
		fmt.Print(b.String())
	default:
		log.Printf("unknown command %q, type \"help\" for commands", fields[0])
	}
	return false
}
