package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-rake/dsp/beamform"
)

// tapsFile is the JSON output of the design command and the input of the
// apply and response commands.
type tapsFile struct {
	SampleRate float64     `json:"sampleRate"`
	Method     string      `json:"method,omitempty"`
	Mics       [][]float64 `json:"mics"`
	Taps       [][]float64 `json:"taps"`
	Condition  *float64    `json:"condition,omitempty"`
	SINRdB     *float64    `json:"sinrDB,omitempty"`
	Lh         int         `json:"lh,omitempty"`
	Guard      float64     `json:"guard,omitempty"` // seconds
	Warning    string      `json:"warning,omitempty"`
}

// optional drops NaN and Inf, which JSON cannot carry.
func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newTapsFile(fb *beamform.FilterBank) tapsFile {
	positions := fb.Array().Positions()
	mics := make([][]float64, len(positions))
	for i, p := range positions {
		mics[i] = p
	}

	tf := tapsFile{
		SampleRate: fb.SampleRate(),
		Method:     fb.Method().String(),
		Mics:       mics,
		Taps:       fb.Taps(),
		Condition:  optional(fb.Condition()),
		SINRdB:     optional(fb.SINRdB()),
		Lh:         fb.Alignment().Lh,
		Guard:      fb.Alignment().Guard,
	}
	if err := fb.Warning(); err != nil {
		tf.Warning = err.Error()
	}
	return tf
}

func (tf tapsFile) write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadTaps(path string) (*beamform.FilterBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf tapsFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	mics := make([]beamform.Point, len(tf.Mics))
	for i, m := range tf.Mics {
		mics[i] = m
	}
	arr, err := beamform.NewArray(mics...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fb, err := beamform.NewFilterBank(arr, tf.SampleRate, tf.Taps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fb, nil
}
