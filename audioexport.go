package sixop

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavPCM   = 1
	wavFloat = 3
)

// wavFormat is the body of the "fmt " chunk. Float files carry the two byte
// extension size field, PCM files stop at BitsPerSample.
type wavFormat struct {
	Tag           uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Wav encodes the buffer as a stereo RIFF/WAVE file at the given sample rate:
// 16-bit integer PCM when pcm16 is set, IEEE float otherwise.
func (buffer AudioBuffer) Wav(pcm16 bool, sampleRate int) ([]byte, error) {
	body, err := buffer.Raw(pcm16)
	if err != nil {
		return nil, fmt.Errorf("Wav failed: %v", err)
	}
	out := new(bytes.Buffer)
	writeWav(out, body, len(buffer), pcm16, sampleRate)
	return out.Bytes(), nil
}

// Raw returns the interleaved samples without any header.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	out := new(bytes.Buffer)
	var err error
	if pcm16 {
		frames := make([][2]int16, len(buffer))
		for i, f := range buffer {
			frames[i] = [2]int16{toInt16(f[0]), toInt16(f[1])}
		}
		err = binary.Write(out, binary.LittleEndian, frames)
	} else {
		err = binary.Write(out, binary.LittleEndian, buffer)
	}
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %v", err)
	}
	return out.Bytes(), nil
}

func toInt16(v float32) int16 {
	s := math.Round(float64(v) * math.MaxInt16)
	return int16(max(math.MinInt16, min(math.MaxInt16, s)))
}

// writeWav writes the RIFF header, the format chunk, a fact chunk for float
// data and finally the data chunk holding body.
func writeWav(out *bytes.Buffer, body []byte, frames int, pcm16 bool, sampleRate int) {
	// http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const channels = 2
	f := wavFormat{Tag: wavFloat, Channels: channels, SampleRate: uint32(sampleRate), BitsPerSample: 32}
	if pcm16 {
		f.Tag, f.BitsPerSample = wavPCM, 16
	}
	f.BlockAlign = channels * f.BitsPerSample / 8
	f.ByteRate = f.SampleRate * uint32(f.BlockAlign)
	fmtSize := uint32(binary.Size(f))
	if !pcm16 {
		fmtSize += 2
	}
	riffSize := 4 + (8 + fmtSize) + (8 + uint32(len(body)))
	if !pcm16 {
		riffSize += 8 + 4
	}
	le := binary.LittleEndian
	chunk := func(id string, size uint32) {
		out.WriteString(id)
		binary.Write(out, le, size)
	}
	chunk("RIFF", riffSize)
	out.WriteString("WAVE")
	chunk("fmt ", fmtSize)
	binary.Write(out, le, f)
	if !pcm16 {
		binary.Write(out, le, uint16(0))
		chunk("fact", 4)
		binary.Write(out, le, uint32(frames))
	}
	chunk("data", uint32(len(body)))
	out.Write(body)
}
