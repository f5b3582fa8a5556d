package main

import (
	"fmt"
	"reflect"
	"testing"
)

func TestEditTraceLogsInOrder(t *testing.T) {
	trace := newEditTrace()
	var lines []string
	trace.logf = func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }
	trace.BeginEdit(500)
	trace.SetParam(500, 0.5)
	trace.EndEdit(500)
	trace.log()
	want := []string{"edit 500 begins", "edit 500 = 0.5", "edit 500 ends"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q, want %q", lines, want)
	}
	trace.log()
	if len(lines) != 3 {
		t.Fatalf("edits logged twice: %q", lines)
	}
}
