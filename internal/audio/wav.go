// Package audio handles the WAV framing needed to keep transcription uploads
// under the provider's file-size limit.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Info describes the container parameters of a PCM WAV file.
type Info struct {
	Channels    int
	SampleWidth int // bytes per sample
	FrameRate   int
	Frames      int
}

// BytesPerFrame returns the size of one frame across all channels.
func (i *Info) BytesPerFrame() int { return i.SampleWidth * i.Channels }

// Duration returns the playback length in seconds.
func (i *Info) Duration() float64 {
	if i.FrameRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.FrameRate)
}

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

func (h *wavHeader) validate() error {
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return fmt.Errorf("not a RIFF/WAVE file")
	}
	if string(h.Subchunk1ID[:]) != "fmt " {
		return fmt.Errorf("missing fmt chunk")
	}
	if h.AudioFormat != 1 {
		return fmt.Errorf("unsupported audio format %d, only PCM is supported", h.AudioFormat)
	}
	if string(h.Subchunk2ID[:]) != "data" {
		return fmt.Errorf("missing data chunk")
	}
	if h.NumChannels == 0 || h.SampleRate == 0 || h.BitsPerSample == 0 || h.BitsPerSample%8 != 0 {
		return fmt.Errorf("invalid container parameters (channels=%d rate=%d bits=%d)",
			h.NumChannels, h.SampleRate, h.BitsPerSample)
	}
	return nil
}

func (h *wavHeader) info() *Info {
	sampleWidth := int(h.BitsPerSample) / 8
	bytesPerFrame := sampleWidth * int(h.NumChannels)
	return &Info{
		Channels:    int(h.NumChannels),
		SampleWidth: sampleWidth,
		FrameRate:   int(h.SampleRate),
		Frames:      int(h.Subchunk2Size) / bytesPerFrame,
	}
}

func newHeader(info *Info, dataSize int) wavHeader {
	h := wavHeader{
		ChunkSize:     uint32(36 + dataSize),
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(info.Channels),
		SampleRate:    uint32(info.FrameRate),
		ByteRate:      uint32(info.FrameRate * info.BytesPerFrame()),
		BlockAlign:    uint16(info.BytesPerFrame()),
		BitsPerSample: uint16(info.SampleWidth * 8),
		Subchunk2Size: uint32(dataSize),
	}
	copy(h.ChunkID[:], "RIFF")
	copy(h.Format[:], "WAVE")
	copy(h.Subchunk1ID[:], "fmt ")
	copy(h.Subchunk2ID[:], "data")
	return h
}

// DecodeInfo reads and validates a WAV header from r.
func DecodeInfo(r io.Reader) (*Info, error) {
	var h wavHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read WAV header: %w", err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h.info(), nil
}

// ReadInfo reads the container parameters of a WAV file.
func ReadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return DecodeInfo(f)
}

// ReadFile reads the container parameters and the full frame buffer.
func ReadFile(path string) (*Info, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	info, err := DecodeInfo(f)
	if err != nil {
		return nil, nil, err
	}

	frames := make([]byte, info.Frames*info.BytesPerFrame())
	if _, err := io.ReadFull(f, frames); err != nil {
		return nil, nil, fmt.Errorf("read audio frames: %w", err)
	}
	return info, frames, nil
}

// WriteFile writes a PCM WAV file with the given container parameters and
// frame data.
func WriteFile(path string, info *Info, frames []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	header := newHeader(info, len(frames))
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write WAV header: %w", err)
	}
	if _, err := f.Write(frames); err != nil {
		return fmt.Errorf("write audio frames: %w", err)
	}
	return nil
}
