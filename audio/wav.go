package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes the segment to path as a 16-bit PCM WAV file.
func WriteWAV(seg Segment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(seg.SampleRate), 16, int(seg.Channels), 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(seg.Channels),
			SampleRate:  int(seg.SampleRate),
		},
		Data:           samplesToInts(seg.Data),
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}

	return nil
}

// samplesToInts expands S16LE PCM bytes into the int samples the wav
// encoder expects.
func samplesToInts(data []byte) []int {
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8))
	}
	return samples
}
