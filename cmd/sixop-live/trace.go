package main

import (
	"log"

	"github.com/sixop/sixop/control"
)

type editKind int

const (
	editBegin editKind = iota
	editSet
	editEnd
)

type edit struct {
	kind  editKind
	id    uint32
	value float32
}

// editTrace is a control.HostNotifier standing in for a plugin host: the
// player calls it on the audio thread, so it only queues the edits, and the
// main loop logs them.
type editTrace struct {
	edits *control.Queue[edit]
	logf  func(format string, args ...any)
}

func newEditTrace() *editTrace {
	return &editTrace{edits: control.NewQueue[edit](256), logf: log.Printf}
}

func (e *editTrace) BeginEdit(id uint32)               { e.edits.TryPush(edit{kind: editBegin, id: id}) }
func (e *editTrace) SetParam(id uint32, value float32) { e.edits.TryPush(edit{kind: editSet, id: id, value: value}) }
func (e *editTrace) EndEdit(id uint32)                 { e.edits.TryPush(edit{kind: editEnd, id: id}) }

func (e *editTrace) log() {
	e.edits.Drain(func(ed edit) {
		switch ed.kind {
		case editBegin:
			e.logf("edit %d begins", ed.id)
		case editSet:
			e.logf("edit %d = %v", ed.id, ed.value)
		case editEnd:
			e.logf("edit %d ends", ed.id)
		}
	})
}
