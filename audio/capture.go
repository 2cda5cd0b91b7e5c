// Package audio captures microphone input as normalized PCM (16kHz
// mono 16-bit) and converts it to WAV for the transcription service.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Segment is a recorded stretch of normalized PCM samples.
type Segment struct {
	Data       []byte // raw S16LE PCM
	SampleRate uint32
	Channels   uint32
	Duration   time.Duration
}

// Recorder manages microphone capture. The device runs continuously;
// Start and Stop only toggle whether samples are buffered, so a
// recording begins without device-open latency.
type Recorder struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	deviceName string
	sampleRate uint32
	channels   uint32
	maxSeconds int

	mu        sync.Mutex
	buf       *bytes.Buffer
	recording bool
	startTime time.Time
}

// NewRecorder initializes the capture device. deviceName selects a
// capture device by name fragment, empty for the system default.
// maxSeconds caps a single recording so a forgotten session cannot grow
// without bound.
func NewRecorder(deviceName string, sampleRate, maxSeconds int) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	r := &Recorder{
		malgoCtx:   ctx,
		deviceName: deviceName,
		sampleRate: uint32(sampleRate),
		channels:   1,
		maxSeconds: maxSeconds,
		buf:        new(bytes.Buffer),
	}

	if err := r.initDevice(); err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize audio device: %w", err)
	}

	return r, nil
}

func (r *Recorder) initDevice() error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = r.channels
	deviceConfig.SampleRate = r.sampleRate
	deviceConfig.Alsa.NoMMap = 1

	if r.deviceName != "" {
		infos, err := r.malgoCtx.Devices(malgo.Capture)
		if err != nil {
			return fmt.Errorf("failed to enumerate capture devices: %w", err)
		}
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name()
		}
		if i := pickDevice(names, r.deviceName); i >= 0 {
			id := infos[i].ID
			deviceConfig.Capture.DeviceID = id.Pointer()
			slog.Info("Using capture device", "name", names[i])
		} else {
			slog.Warn("Capture device not found, using default", "wanted", r.deviceName, "available", names)
		}
	}

	onData := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if !r.recording {
			return
		}

		if time.Since(r.startTime) > time.Duration(r.maxSeconds)*time.Second {
			r.recording = false
			return
		}

		r.buf.Write(pInputSamples)
	}

	var err error
	r.device, err = malgo.InitDevice(r.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize device: %w", err)
	}

	if err := r.device.Start(); err != nil {
		r.device.Uninit()
		r.device = nil
		return fmt.Errorf("failed to start device: %w", err)
	}

	return nil
}

// pickDevice returns the index of the first device whose name matches
// want exactly, then the first containing it, both case-insensitive.
// Returns -1 when nothing matches.
func pickDevice(names []string, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return -1
	}

	for i, name := range names {
		if strings.ToLower(strings.TrimSpace(name)) == want {
			return i
		}
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), want) {
			return i
		}
	}
	return -1
}

// Start begins buffering audio.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("already recording")
	}

	r.buf.Reset()
	r.recording = true
	r.startTime = time.Now()

	return nil
}

// Recording reports whether samples are currently being buffered.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Stop ends buffering and returns the captured segment. The device
// stays running for the next recording.
func (r *Recorder) Stop() (Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Segment{}, fmt.Errorf("not recording")
	}

	r.recording = false

	duration := time.Since(r.startTime)
	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())

	return Segment{
		Data:       data,
		SampleRate: r.sampleRate,
		Channels:   r.channels,
		Duration:   duration,
	}, nil
}

// Close releases the capture device.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		r.device.Stop()
		r.device.Uninit()
		r.device = nil
	}

	if r.malgoCtx != nil {
		_ = r.malgoCtx.Uninit()
		r.malgoCtx.Free()
		r.malgoCtx = nil
	}

	return nil
}

// RMS returns the root mean square amplitude of the segment.
// Typical values: silence < 500, quiet speech ~1000-2000, normal
// speech ~2000-5000.
func (seg *Segment) RMS() float64 {
	numSamples := len(seg.Data) / 2
	if numSamples == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(seg.Data[i*2 : i*2+2]))
		sumSquares += float64(sample) * float64(sample)
	}

	return math.Sqrt(sumSquares / float64(numSamples))
}
