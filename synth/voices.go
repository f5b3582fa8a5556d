package synth

import "github.com/sixop/sixop"

// VoiceManager owns the fixed pool of voices and decides which voice plays a
// new note. When no voice is free, the voice released earliest is stolen; if
// none is releasing, the voice triggered earliest is.
type VoiceManager struct {
	voices [sixop.MaxVoices]Voice
	limit  int
	stamp  uint64 // source of trigger and release stamps; never repeats
}

func (m *VoiceManager) nextStamp() uint64 {
	m.stamp++
	return m.stamp
}

// Voice returns the voice at index i.
func (m *VoiceManager) Voice(i int) *Voice { return &m.voices[i] }

// Limit returns the number of voices notes can currently be allocated to.
func (m *VoiceManager) Limit() int {
	if m.limit <= 0 {
		return sixop.MaxVoices
	}
	return m.limit
}

// SetLimit bounds the usable pool. Voices beyond the new limit are silenced.
func (m *VoiceManager) SetLimit(n int) {
	n = min(max(n, 1), sixop.MaxVoices)
	for i := n; i < m.Limit(); i++ {
		m.voices[i].free()
	}
	m.limit = n
}

// allocate picks the voice for a new note.
func (m *VoiceManager) allocate() int {
	limit := m.Limit()
	releasing, active := -1, -1
	for i := 0; i < limit; i++ {
		v := &m.voices[i]
		switch v.State {
		case VoiceFree:
			return i
		case VoiceReleasing:
			if releasing < 0 || v.releaseStamp < m.voices[releasing].releaseStamp {
				releasing = i
			}
		case VoiceActive:
			if active < 0 || v.triggerStamp < m.voices[active].triggerStamp {
				active = i
			}
		}
	}
	if releasing >= 0 {
		return releasing
	}
	return active
}

// NoteOn starts a note and returns the index of the voice playing it. A note
// that is already held is released first.
func (m *VoiceManager) NoteOn(b *blockParams, note, velocity byte, globalTime uint64, sampleRate float64) int {
	m.NoteOff(note)
	i := m.allocate()
	v := &m.voices[i]
	v.free()
	v.trigger(b, note, velocity, m.nextStamp(), globalTime, sampleRate)
	return i
}

// NoteOff releases the active voices playing note.
func (m *VoiceManager) NoteOff(note byte) {
	for i := range m.voices {
		v := &m.voices[i]
		if v.State == VoiceActive && v.Note == note {
			v.release(m.nextStamp())
		}
	}
}

// ReleaseAll releases every active voice.
func (m *VoiceManager) ReleaseAll() {
	for i := range m.voices {
		m.voices[i].release(m.nextStamp())
	}
}

// Panic frees every voice immediately.
func (m *VoiceManager) Panic() {
	for i := range m.voices {
		m.voices[i].free()
	}
}

// Reclaim frees the voices whose amplitude envelope has finished.
func (m *VoiceManager) Reclaim() {
	for i := range m.voices {
		if m.voices[i].finished() {
			m.voices[i].free()
		}
	}
}

// Counts returns the number of active and releasing voices.
func (m *VoiceManager) Counts() (active, releasing int) {
	for i := range m.voices {
		switch m.voices[i].State {
		case VoiceActive:
			active++
		case VoiceReleasing:
			releasing++
		}
	}
	return
}
