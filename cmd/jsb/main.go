// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// jsb converts JSON on standard input to the tagged binary format on standard
// output, or binary back to JSON.  The direction is chosen from the first
// input byte: a value tag means binary input.  zstd-compressed input is
// decompressed transparently.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/pflag"

	"github.com/xdg-go/jsb"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath string
		verify     bool
		stream     bool
		timing     bool
	)
	cfg := DefaultConfig()

	flagSet := pflag.NewFlagSet("jsb", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.BoolVarP(&verify, "verify", "v", false, "verify input only (no output)")
	flagSet.BoolVarP(&stream, "stream", "s", false, "accepted for compatibility; input is always streamed")
	flagSet.IntVarP(&cfg.InputWindow, "input-window", "r", cfg.InputWindow, "input window size in bytes")
	flagSet.IntVarP(&cfg.OutputWindow, "output-window", "w", cfg.OutputWindow, "output window size in bytes")
	flagSet.BoolVarP(&cfg.Lines, "lines", "l", false, "process concatenated JSON or binary records")
	flagSet.BoolVarP(&cfg.ASCII, "ascii", "a", false, "force ASCII output for binary -> JSON")
	flagSet.BoolVarP(&timing, "time", "t", false, "log timing information")
	flagSet.BoolVarP(&cfg.Compress, "zstd", "z", false, "zstd-compress the output")
	flagSet.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "maximum nesting of JSON input")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(stdout, "Usage: jsb [options] < input > output\n\nOptions:\n%s", flagSet.FlagUsages())
		return nil
	}

	if configPath != "" {
		fileCfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = mergeFlags(flagSet, cfg, fileCfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.logLevel()
	logger := newLogger(stderr, level)
	if stream {
		logger.Debug("-s has no effect; input is always streamed")
	}

	out := stdout
	if verify {
		out = io.Discard
	}
	var encoder *zstd.Encoder
	if cfg.Compress && !verify {
		encLevel, _ := cfg.encoderLevel()
		var err error
		if encoder, err = zstd.NewWriter(stdout, zstd.WithEncoderLevel(encLevel)); err != nil {
			return fmt.Errorf("zstd encoder: %w", err)
		}
		out = encoder
	}

	start := time.Now()
	st, err := transcode(cfg, stdin, out, logger)
	if encoder != nil {
		if closeErr := encoder.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return err
	}

	if timing {
		elapsed := time.Since(start)
		var rate float64
		if elapsed > 0 {
			rate = float64(st.in) / (1 << 20) / elapsed.Seconds()
		}
		logger.Info("transcoded",
			"bytes_in", st.in,
			"bytes_out", st.out,
			"documents", st.docs,
			"elapsed", elapsed,
			"mb_per_sec", rate,
		)
	}
	return nil
}

// mergeFlags starts from the file settings and applies the flags given on
// the command line.
func mergeFlags(flagSet *pflag.FlagSet, flagCfg, fileCfg *Config) *Config {
	merged := *fileCfg
	if flagSet.Changed("input-window") {
		merged.InputWindow = flagCfg.InputWindow
	}
	if flagSet.Changed("output-window") {
		merged.OutputWindow = flagCfg.OutputWindow
	}
	if flagSet.Changed("max-depth") {
		merged.MaxDepth = flagCfg.MaxDepth
	}
	if flagSet.Changed("lines") {
		merged.Lines = flagCfg.Lines
	}
	if flagSet.Changed("ascii") {
		merged.ASCII = flagCfg.ASCII
	}
	if flagSet.Changed("zstd") {
		merged.Compress = flagCfg.Compress
	}
	return &merged
}

type stats struct {
	in   int64
	out  int64
	docs int
}

// openInput unwraps zstd-compressed input and chooses the direction from the
// first byte.
func openInput(r io.Reader, size int) (*bufio.Reader, jsb.Flags, func(), error) {
	br := bufio.NewReaderSize(r, size)
	closer := func() {}
	if magic, _ := br.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
		decoder, err := zstd.NewReader(br)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("zstd decoder: %w", err)
		}
		br = bufio.NewReaderSize(decoder, size)
		closer = decoder.Close
	}

	first, err := br.Peek(1)
	if err != nil || len(first) == 0 {
		// empty input is left to the transcoder
		return br, 0, closer, nil
	}
	switch first[0] {
	case jsb.TagNull, jsb.TagTrue, jsb.TagFalse, jsb.TagNumber, jsb.TagString, jsb.TagObject, jsb.TagArray:
		return br, jsb.Reverse, closer, nil
	case jsb.TagDocEnd:
		// stray document ends are skipped in lines mode
		return br, jsb.Reverse, closer, nil
	case 0xc0, 0xc1, jsb.TagKey, jsb.TagObjectEnd, jsb.TagArrayEnd:
		closer()
		return nil, 0, nil, fmt.Errorf("input starts with byte 0x%02x, which begins neither JSON nor a binary value", first[0])
	}
	return br, 0, closer, nil
}

// transcode drives a Transcoder over the input, writing each full output
// window as it is produced.
func transcode(cfg *Config, stdin io.Reader, out io.Writer, logger *slog.Logger) (stats, error) {
	in, direction, closer, err := openInput(stdin, cfg.InputWindow)
	if err != nil {
		return stats{}, err
	}
	defer closer()

	flags := cfg.flags() | direction
	t := jsb.NewTranscoder(cfg.OutputWindow, flags)
	t.MaxDepth(cfg.MaxDepth)
	logger.Debug("starting",
		"reverse", flags&jsb.Reverse != 0,
		"lines", flags&jsb.Lines != 0,
		"input_window", cfg.InputWindow,
		"output_window", cfg.OutputWindow,
	)

	buf := make([]byte, cfg.InputWindow)
	dst := make([]byte, cfg.OutputWindow)
	var src []byte
	var st stats
	var read int64

	flushOut := func() error {
		n := t.Consume(dst, -1)
		if _, err := out.Write(dst[:n]); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	for {
		n, err := t.Update(dst, src)
		switch {
		case err == nil:
			st.docs++
			logger.Debug("document", "index", st.docs, "bytes", n)
		case errors.Is(err, jsb.ErrNeedInput):
			src, err = fill(in, buf)
			if err != nil && err != io.EOF {
				return st, fmt.Errorf("reading input: %w", err)
			}
			read += int64(len(src))
			if err = t.SetSrcLen(len(src)); err != nil {
				return st, err
			}
		case errors.Is(err, jsb.ErrNeedOutput):
			if err = flushOut(); err != nil {
				return st, err
			}
		case err == io.EOF:
			// a single document may end before the input does
			if _, peekErr := in.Peek(1); t.TotalIn() < read || peekErr == nil {
				return st, fmt.Errorf("unexpected data after document at offset %d", t.TotalIn())
			}
			if err = flushOut(); err != nil {
				return st, err
			}
			if flags&jsb.Reverse != 0 && flags&jsb.Lines == 0 {
				if _, err = io.WriteString(out, "\n"); err != nil {
					return st, fmt.Errorf("writing output: %w", err)
				}
			}
			st.in, st.out = t.TotalIn(), t.TotalOut()
			return st, nil
		default:
			var pe *jsb.ParseError
			if errors.As(err, &pe) {
				logger.Debug("parse failed", "offset", pe.Offset, "documents", st.docs)
			}
			return st, err
		}
	}
}

// maxEmptyReads bounds successive reads returning no data and no error.
const maxEmptyReads = 100

// fill reads the next input window.  At the end of input it returns an empty
// window and io.EOF.
func fill(in io.Reader, buf []byte) ([]byte, error) {
	for i := 0; i < maxEmptyReads; i++ {
		n, err := in.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err != nil {
			return buf[:0], err
		}
	}
	return buf[:0], io.ErrNoProgress
}
