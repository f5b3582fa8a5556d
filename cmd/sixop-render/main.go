package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/cmd"
	"github.com/sixop/sixop/control"
	"github.com/sixop/sixop/oto"
	"github.com/sixop/sixop/report"
	"github.com/sixop/sixop/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, the files are placed in the working directory.")
	play := flag.Bool("p", false, "Play the rendered patches (default behaviour when no other output is defined).")
	rawOut := flag.Bool("r", false, "Output the rendered audio as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered audio as .wav file. By default, saves stereo float32 buffer to disk.")
	reportOut := flag.Bool("report", false, "Output a .txt report of the non-default parameters and the modulation routes.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	preset := flag.String("preset", "", "Render the named preset instead of patch files. User presets are searched too.")
	note := flag.Int("note", 60, "MIDI note to play.")
	velocity := flag.Int("vel", 100, "Velocity of the note, 1-127.")
	length := flag.Float64("len", 1, "Length of the held note, in seconds.")
	tail := flag.Float64("tail", 1, "Length of the rendered release tail, in seconds.")
	sampleRate := flag.Int("rate", 44100, "Sample rate.")
	blockSize := flag.Int("block", 256, "Block size used when rendering, in samples.")
	synthName := flag.String("synth", "", "Synth implementation to use. By default, the first available.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if (flag.NArg() == 0 && *preset == "") || *help {
		flag.Usage()
		os.Exit(0)
	}
	if *note < 0 || *note > 127 || *velocity < 1 || *velocity > 127 {
		fmt.Fprintf(os.Stderr, "note must be 0-127 and velocity 1-127\n")
		os.Exit(1)
	}
	if *length < 0 || *tail < 0 || *sampleRate <= 0 {
		fmt.Fprintf(os.Stderr, "length, tail and sample rate must be positive\n")
		os.Exit(1)
	}
	synther, err := cmd.SyntherByName(*synthName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if !*rawOut && !*wavOut && !*reportOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the patch
	}
	var audioContext sixop.AudioContext
	if *play {
		var err error
		audioContext, err = oto.NewContext(*sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
	}
	held := int(math.Round(*length * float64(*sampleRate)))
	frames := held + int(math.Round(*tail*float64(*sampleRate)))
	events := []sixop.NoteEvent{
		{Frame: 0, On: true, Note: byte(*note), Velocity: byte(*velocity)},
		{Frame: held, On: false, Note: byte(*note)},
	}
	process := func(filename string, patch *sixop.Patch, name string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				_, err := os.Stdout.Write(contents)
				return err
			}
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			_, base := filepath.Split(filename)
			f := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+extension)
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		if *reportOut {
			var b bytes.Buffer
			if err := report.Patch(&b, patch, name); err != nil {
				return fmt.Errorf("could not generate report: %v", err)
			}
			if err := output(".txt", b.Bytes()); err != nil {
				return fmt.Errorf("error outputting .txt file: %v", err)
			}
		}
		if !*play && !*rawOut && !*wavOut {
			return nil
		}
		buffer, err := sixop.Render(synther.Synth(patch, float64(*sampleRate)), events, frames, *blockSize)
		if err != nil {
			return fmt.Errorf("sixop.Render failed: %v", err)
		}
		var playWaiter sixop.CloserWaiter
		if *play {
			playWaiter = audioContext.Play(buffer.Source())
		}
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			wav, err := buffer.Wav(*pcm, *sampleRate)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *play {
			playWaiter.Wait()
			if err := playWaiter.Close(); err != nil && !errors.Is(err, sixop.ErrEndOfSource) {
				return fmt.Errorf("playback failed: %v", err)
			}
		}
		return nil
	}
	retval := 0
	if *preset != "" {
		var presets control.Presets
		userDir, _ := control.UserPresetDir()
		presets.Load(userDir)
		p, ok := presets.Find(*preset)
		if !ok {
			fmt.Fprintf(os.Stderr, "could not find preset %q\n", *preset)
			os.Exit(1)
		}
		patch := sixop.NewPatch()
		p.ApplyTo(patch)
		if err := process(p.Name, patch, p.Name); err != nil {
			fmt.Fprintf(os.Stderr, "could not process preset %v: %v\n", p.Name, err)
			retval = 1
		}
	}
	processFile := func(filename string) {
		patch, name, err := readPatch(filename)
		if err == nil {
			err = process(filename, patch, name)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", filename, err)
			retval = 1
		}
	}
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, pattern := range []string{"*.yml", "*.yaml", "*.json"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, pattern, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				processFile(file)
			}
		} else {
			processFile(param)
		}
	}
	os.Exit(retval)
}

// readPatch reads a saved patch state or a preset file. Entries that cannot
// be parsed are reported but do not prevent rendering.
func readPatch(filename string) (*sixop.Patch, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("could not read file %v: %v", filename, err)
	}
	patch := sixop.NewPatch()
	name, err := patch.DeserializeNamed(data)
	var stateErr *sixop.StateError
	if errors.As(err, &stateErr) {
		fmt.Fprintf(os.Stderr, "warning: %v: %v\n", filename, stateErr)
	} else if err != nil {
		return nil, "", err
	}
	if name == "" {
		_, base := filepath.Split(filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return patch, name, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Sixop command line utility for rendering .yml/.json patch files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
