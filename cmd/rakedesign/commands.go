package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-rake/dsp/beamform"
	"github.com/cwbudde/algo-rake/dsp/conv"
	"github.com/cwbudde/algo-rake/dsp/core"
	"github.com/cwbudde/algo-rake/dsp/resample"
	"github.com/cwbudde/algo-rake/dsp/spectrum"
	"github.com/cwbudde/algo-rake/internal/logging"
	"github.com/cwbudde/algo-rake/measure/sinr"
)

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return usageErrorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

func runDesign(args []string, stdout, stderr io.Writer) error {
	fs, lf := newFlagSet("design", stderr)
	scenarioPath := fs.String("scenario", "", "JSON scenario file (required)")
	out := fs.String("out", "", "output taps file (default stdout)")
	method := fs.String("method", "", "override the scenario method: mvdr, maxsinr, das")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return usageErrorf("-scenario is required")
	}
	log := lf.logger(stderr)

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	d, err := sc.designer(log)
	if err != nil {
		return err
	}
	m, err := sc.method(*method)
	if err != nil {
		return err
	}
	rn, err := sc.noise(d)
	if err != nil {
		return err
	}

	fb, err := d.DesignWith(m, images(sc.Desired), images(sc.Interferer), rn)
	if err != nil {
		return err
	}
	log.Info("design done",
		logging.String("method", m.String()),
		logging.Int("mics", fb.Mics()),
		logging.Int("taps", fb.Len()),
		logging.Float("sinr_db", fb.SINRdB()),
		logging.Float("condition", fb.Condition()))

	tf := newTapsFile(fb)
	if *out == "" {
		return tf.write(stdout)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := tf.write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runApply(args []string, stdout, stderr io.Writer) error {
	fs, lf := newFlagSet("apply", stderr)
	tapsPath := fs.String("taps", "", "taps file from the design command (required)")
	in := fs.String("in", "", "multichannel input WAV, one channel per microphone (required)")
	out := fs.String("out", "", "mono output WAV (required)")
	modeName := fs.String("mode", "causal", "output alignment: causal, same, full, valid")
	blockSize := fs.Int("block", core.DefaultBlockSize, "block size of the streaming causal path")
	convert := fs.Bool("resample", true, "resample the input to the design sample rate")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *tapsPath == "" || *in == "" || *out == "" {
		return usageErrorf("-taps, -in and -out are required")
	}
	mode, err := conv.ParseMode(*modeName)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	log := lf.logger(stderr)

	fb, err := loadTaps(*tapsPath)
	if err != nil {
		return err
	}
	rec, err := readWAV(*in)
	if err != nil {
		return err
	}
	if len(rec.Channels) != fb.Mics() {
		return fmt.Errorf("%w: %s has %d channels for %d microphones",
			beamform.ErrDimensionMismatch, *in, len(rec.Channels), fb.Mics())
	}
	if float64(rec.SampleRate) != fb.SampleRate() {
		if !*convert {
			log.Warn("sample rate differs from design",
				logging.Int("wav_hz", rec.SampleRate),
				logging.Float("design_hz", fb.SampleRate()))
		} else {
			rec.Channels, err = resample.Channels(rec.Channels, float64(rec.SampleRate), fb.SampleRate())
			if err != nil {
				return err
			}
			log.Info("input resampled",
				logging.Int("from_hz", rec.SampleRate),
				logging.Float("to_hz", fb.SampleRate()))
			rec.SampleRate = int(math.Round(fb.SampleRate()))
		}
	}

	var y []float64
	if mode == conv.ModeCausal {
		cfg := core.ApplyProcessorOptions(
			core.WithSampleRate(float64(rec.SampleRate)),
			core.WithBlockSize(*blockSize))
		y, err = stream(fb, rec.Channels, cfg)
	} else {
		y, err = fb.Apply(rec.Channels, mode)
	}
	if err != nil {
		return err
	}

	peak := 0.0
	for _, v := range y {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak >= 1 {
		log.Warn("output clipped", logging.Float("peak", peak))
	}
	log.Info("apply done",
		logging.String("mode", mode.String()),
		logging.Int("frames", len(y)),
		logging.Float("peak_db", core.LinearToDB(peak)))

	if err := writeWAV(*out, &pcm{Channels: [][]float64{y}, SampleRate: rec.SampleRate, BitDepth: rec.BitDepth}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d frames written to %s\n", len(y), *out)
	return nil
}

// stream runs the recording through a streaming processor block by block.
func stream(fb *beamform.FilterBank, x [][]float64, cfg core.ProcessorConfig) ([]float64, error) {
	n := len(x[0])
	if n == 0 {
		return nil, beamform.ErrEmptySignal
	}
	for r := range x {
		if len(x[r]) != n {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d", beamform.ErrDimensionMismatch, r, len(x[r]), n)
		}
	}

	p := fb.NewProcessor()
	y := make([]float64, n)
	inputs := make([][]float64, len(x))
	for _, b := range cfg.Blocks(n) {
		for r := range x {
			inputs[r] = x[r][b[0]:b[1]]
		}
		if err := p.ProcessBlock(y[b[0]:b[1]], inputs); err != nil {
			return nil, err
		}
	}
	return y, nil
}

func runResponse(args []string, stdout, stderr io.Writer) error {
	fs, _ := newFlagSet("response", stderr)
	tapsPath := fs.String("taps", "", "taps file from the design command (required)")
	angles := fs.String("angles", "0", "comma-separated incidence angles in degrees")
	freqs := fs.String("freqs", "500,1000,2000", "comma-separated frequencies in Hz")
	c := fs.Float64("c", core.DefaultSpeedOfSound, "speed of sound in m/s")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *tapsPath == "" {
		return usageErrorf("-taps is required")
	}
	deg, err := parseList(*angles)
	if err != nil {
		return fmt.Errorf("%w: -angles: %w", errUsage, err)
	}
	hz, err := parseList(*freqs)
	if err != nil {
		return fmt.Errorf("%w: -freqs: %w", errUsage, err)
	}

	fb, err := loadTaps(*tapsPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ANGLE\tFREQ\tGAIN\tGAIN dB\tPHASE deg\n")
	for _, a := range deg {
		resp, err := fb.FrequencyResponse(a*math.Pi/180, hz, *c)
		if err != nil {
			return err
		}
		gain, db := spectrum.Magnitude(resp), spectrum.MagnitudeDB(resp)
		phase := spectrum.UnwrapPhase(spectrum.Phase(resp))
		for j, f := range hz {
			fmt.Fprintf(tw, "%g\t%g\t%.6f\t%.2f\t%.1f\n", a, f, gain[j], db[j], phase[j]*180/math.Pi)
		}
	}
	return tw.Flush()
}

func parseList(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("empty list")
	}
	return out, nil
}

func runSweep(args []string, stdout, stderr io.Writer) error {
	fs, lf := newFlagSet("sweep", stderr)
	scenarioPath := fs.String("scenario", "", "JSON scenario file with array, config and box (required)")
	maxImages := fs.Int("images", 15, "largest number of images per source")
	trials := fs.Int("trials", 10, "trials per image count")
	seed := fs.Int64("seed", 1, "random seed")
	workers := fs.Int("workers", 0, "concurrent trials (0 = GOMAXPROCS)")
	method := fs.String("method", "", "override the scenario method: mvdr, maxsinr, das")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return usageErrorf("-scenario is required")
	}
	log := lf.logger(stderr)

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	d, err := sc.designer(logging.Noop())
	if err != nil {
		return err
	}
	m, err := sc.method(*method)
	if err != nil {
		return err
	}
	gen, err := sc.generator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := sinr.Sweep(ctx, sinr.SweepConfig{
		Designer:      d,
		Method:        m,
		NoiseVariance: sc.NoiseVariance,
		MaxImages:     *maxImages,
		Trials:        *trials,
		Seed:          *seed,
		Workers:       *workers,
		Logger:        log,
	}, gen)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "IMAGES\tMEDIAN dB\tQ25 dB\tQ75 dB\n")
	med, lo, hi := res.Median(), res.Quantile(0.25), res.Quantile(0.75)
	for i, n := range res.Images() {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\n", n, med[i], lo[i], hi[i])
	}
	return tw.Flush()
}
