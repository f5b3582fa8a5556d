//go:build plugin

package main

import (
	"log"
	"time"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/cmd"
	"github.com/sixop/sixop/control"
	"pipelined.dev/audio/vst2"
)

const (
	PLUGIN_ID   = 'S'<<24 | 'x'<<16 | 'o'<<8 | 'p'
	PLUGIN_NAME = "Sixop"
)

// VSTIProcessContext replays the MIDI events the host gave for the current
// block.
type VSTIProcessContext struct {
	events     []vst2.MIDIEvent
	eventIndex int
}

func (c *VSTIProcessContext) NextEvent(frame int) (event control.MIDINoteEvent, ok bool) {
	for c.eventIndex < len(c.events) {
		ev := c.events[c.eventIndex]
		c.eventIndex++
		switch {
		case ev.Data[0] >= 0x80 && ev.Data[0] < 0x90:
			channel := ev.Data[0] - 0x80
			note := ev.Data[1]
			return control.MIDINoteEvent{Frame: int(ev.DeltaFrames), On: false, Channel: int(channel), Note: note}, true
		case ev.Data[0] >= 0x90 && ev.Data[0] < 0xA0:
			channel := ev.Data[0] - 0x90
			note := ev.Data[1]
			velocity := ev.Data[2]
			return control.MIDINoteEvent{Frame: int(ev.DeltaFrames), On: velocity > 0, Channel: int(channel), Note: note, Velocity: velocity}, true
		case ev.Data[0] >= 0xB0 && ev.Data[0] < 0xC0:
			channel := ev.Data[0] - 0xB0
			return control.MIDINoteEvent{Frame: int(ev.DeltaFrames), Controller: true, Channel: int(channel), Note: ev.Data[1], Velocity: ev.Data[2]}, true
		default:
			// ignore all other MIDI messages
		}
	}
	return control.MIDINoteEvent{}, false
}

func (c *VSTIProcessContext) FinishBlock(frame int) {
	c.events = c.events[:0] // reset buffer, but keep the allocated memory
	c.eventIndex = 0
}

// controller owns the model. Everything touching the model runs in its
// goroutine, through exec.
type controller struct {
	model *control.Model
	exec  chan func()
	quit  chan struct{}
	done  chan struct{}
}

func (c *controller) run() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	defer close(c.done)
	for {
		select {
		case f := <-c.exec:
			f()
		case <-ticker.C:
			c.model.Poll()
		case <-c.quit:
			return
		}
	}
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		sampleRate := float64(44100)
		if timeInfo := h.GetTimeInfo(0); timeInfo != nil && timeInfo.SampleRate > 0 {
			sampleRate = timeInfo.SampleRate
		}
		broker := control.NewBroker()
		patch := sixop.NewPatch()
		model := control.NewModel(broker, patch)
		model.Diagnostics = log.Printf
		player := control.NewPlayer(broker, cmd.MainSynther, patch.Copy(), sampleRate)
		c := &controller{model: model, exec: make(chan func()), quit: make(chan struct{}), done: make(chan struct{})}
		go c.run()
		context := VSTIProcessContext{events: make([]vst2.MIDIEvent, 0, 256)}
		buf := make(sixop.AudioBuffer, 1024)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "sixop",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					left := out.Channel(0)
					right := out.Channel(1)
					if len(buf) < out.Frames {
						buf = append(buf, make(sixop.AudioBuffer, out.Frames-len(buf))...)
					}
					buf = buf[:out.Frames]
					player.Process(buf, &context)
					for i := 0; i < out.Frames; i++ {
						left[i], right[i] = buf[i][0], buf[i][1]
					}
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							if len(context.events) < cap(context.events) {
								context.events = append(context.events, *v)
							}
						}
					}
				},
				CloseFunc: func() {
					close(c.quit)
					<-c.done
				},
				GetChunkFunc: func(isPreset bool) []byte {
					retChn := make(chan []byte)
					c.exec <- func() {
						data, err := model.Save()
						if err != nil {
							log.Printf("could not save state: %v", err)
						}
						retChn <- data
					}
					return <-retChn
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					c.exec <- func() {
						if err := model.Load(data); err != nil {
							log.Printf("could not load state: %v", err)
						}
					}
				},
			}

	}
}

func main() {}
