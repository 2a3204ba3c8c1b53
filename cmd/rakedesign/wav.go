package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-rake/dsp/core"
)

const (
	defaultBitDepth = 16
	pcmFormat       = 1
)

var errInvalidWAV = errors.New("invalid wav file")

// pcm is a decoded multichannel recording, one slice per channel, scaled to
// [-1, 1).
type pcm struct {
	Channels   [][]float64
	SampleRate int
	BitDepth   int
}

func readWAV(path string) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", errInvalidWAV, path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	nch := buf.Format.NumChannels
	if nch < 1 {
		return nil, fmt.Errorf("%w: %s has no channels", errInvalidWAV, path)
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = defaultBitDepth
	}
	scale := 1 / math.Ldexp(1, depth-1)

	frames := len(buf.Data) / nch
	out := &pcm{
		Channels:   core.Matrix(nch, frames),
		SampleRate: buf.Format.SampleRate,
		BitDepth:   depth,
	}
	for i := range frames {
		for c := range nch {
			out.Channels[c][i] = float64(buf.Data[i*nch+c]) * scale
		}
	}
	return out, nil
}

func writeWAV(path string, p *pcm) error {
	nch := len(p.Channels)
	if nch == 0 {
		return fmt.Errorf("%w: nothing to write", errInvalidWAV)
	}
	depth := p.BitDepth
	if depth == 0 {
		depth = defaultBitDepth
	}
	full := math.Ldexp(1, depth-1)
	frames := len(p.Channels[0])

	data := make([]int, frames*nch)
	for c, ch := range p.Channels {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", errInvalidWAV, c, len(ch), frames)
		}
		for i, v := range ch {
			data[i*nch+c] = int(math.Round(core.Clamp(v*full, -full, full-1)))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, p.SampleRate, depth, nch, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: p.SampleRate},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
