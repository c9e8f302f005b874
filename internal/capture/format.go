package capture

import (
	"encoding/binary"
	"time"

	"github.com/gopxl/beep/v2"
)

// Format describes interleaved signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) BytesPerFrame() int {
	return 2 * f.Channels
}

// ChunkBytes is the size of a chunk covering d of audio, rounded down to a
// whole number of frames and never smaller than one frame.
func (f Format) ChunkBytes(d time.Duration) int {
	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}
	return frames * f.BytesPerFrame()
}

func (f Format) Beep() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(f.SampleRate),
		NumChannels: f.Channels,
		Precision:   2,
	}
}

// Chunk is one fragment of captured PCM.
type Chunk []byte

// Blob is the concatenation of every chunk of one recording.
type Blob struct {
	Format Format
	Data   []byte
}

// Concat joins chunks in order into a single blob.
func Concat(chunks []Chunk, f Format) Blob {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return Blob{Format: f, Data: data}
}

// Frames is the number of whole frames in the blob; a trailing partial frame
// is ignored.
func (b Blob) Frames() int {
	bpf := b.Format.BytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return len(b.Data) / bpf
}

func (b Blob) Duration() time.Duration {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// Buffer decodes the blob into a playable in-memory buffer.
func (b Blob) Buffer() *beep.Buffer {
	buf := beep.NewBuffer(b.Format.Beep())
	buf.Append(&pcmStreamer{blob: b})
	return buf
}

// pcmStreamer decodes S16LE frames; mono input is copied to both channels.
type pcmStreamer struct {
	blob  Blob
	frame int
}

func (p *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	total := p.blob.Frames()
	if p.frame >= total {
		return 0, false
	}
	bpf := p.blob.Format.BytesPerFrame()
	for n < len(samples) && p.frame < total {
		off := p.frame * bpf
		left := decodeSample(p.blob.Data[off:])
		right := left
		if p.blob.Format.Channels > 1 {
			right = decodeSample(p.blob.Data[off+2:])
		}
		samples[n][0] = left
		samples[n][1] = right
		n++
		p.frame++
	}
	return n, true
}

func (p *pcmStreamer) Err() error { return nil }

func decodeSample(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
}

func encodeSample(dst []byte, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	binary.LittleEndian.PutUint16(dst, uint16(int16(v*32767)))
}
