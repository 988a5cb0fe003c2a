package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"meetscribe/internal/logging"
	"meetscribe/internal/metrics"
)

// DefaultChunkThreshold keeps uploads comfortably under the provider's 25MB
// file limit.
const DefaultChunkThreshold = 20 * 1024 * 1024

// chunkFillRatio leaves headroom in each chunk for container overhead.
const chunkFillRatio = 0.9

// Splitter cuts oversized WAV recordings into self-contained chunk files that
// individually fit under the upload threshold.
type Splitter struct {
	Threshold int64
	log       zerolog.Logger
}

// NewSplitter creates a splitter. A non-positive threshold falls back to the
// default.
func NewSplitter(threshold int64) *Splitter {
	if threshold <= 0 {
		threshold = DefaultChunkThreshold
	}
	return &Splitter{
		Threshold: threshold,
		log:       logging.Component("splitter"),
	}
}

// Split returns the file itself when it fits under the threshold. Otherwise
// it writes frame-exact chunk files next to the source and returns their
// paths in sequence order. Chunk names are deterministic:
// <prefix>_<stem>_partNNN.wav (prefix omitted when empty). The caller owns
// deleting the chunks; the source file is never removed.
func (s *Splitter) Split(path, prefix string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}
	size := fi.Size()
	s.log.Info().Str("file", filepath.Base(path)).Int64("bytes", size).Msg("checking recording size")

	if size <= s.Threshold {
		s.log.Info().Msg("recording fits in a single upload")
		return []string{path}, nil
	}
	s.log.Info().Int64("bytes", size).Int64("threshold", s.Threshold).Msg("recording exceeds limit, splitting")

	info, frames, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	bytesPerFrame := info.BytesPerFrame()
	framesPerChunk := int(float64(s.Threshold)*chunkFillRatio) / bytesPerFrame
	if framesPerChunk < 1 {
		return nil, fmt.Errorf("chunk threshold %d is smaller than one %d-byte frame", s.Threshold, bytesPerFrame)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if prefix != "" {
		stem = prefix + "_" + stem
	}
	dir := filepath.Dir(path)

	var chunkPaths []string
	for start := 0; start < info.Frames; start += framesPerChunk {
		end := start + framesPerChunk
		if end > info.Frames {
			end = info.Frames
		}
		chunk := frames[start*bytesPerFrame : end*bytesPerFrame]

		chunkPath := filepath.Join(dir, fmt.Sprintf("%s_part%03d.wav", stem, len(chunkPaths)+1))
		if err := WriteFile(chunkPath, info, chunk); err != nil {
			return nil, fmt.Errorf("write chunk %d: %w", len(chunkPaths)+1, err)
		}

		metrics.ChunksGenerated.Inc()
		metrics.ChunkSizeBytes.Observe(float64(len(chunk)))
		s.log.Info().
			Str("chunk", filepath.Base(chunkPath)).
			Int("frames", end-start).
			Int("bytes", len(chunk)).
			Msg("chunk written")
		chunkPaths = append(chunkPaths, chunkPath)
	}

	s.log.Info().Int("parts", len(chunkPaths)).Msg("split complete")
	return chunkPaths, nil
}
