package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-pitch/internal/config"
	"github.com/cwbudde/algo-pitch/session"
)

func TestRunToneSequence(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(),
		[]string{"-tone", "100,0,900,240", "-interval", "1ms", "-reply", "hola que tal"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"TICK",
		"silence",
		"out of band",
		"male *",
		"female *",
		"final label: high (female)",
		`reply: "hola que tal" words=3 pitch=1.3 rate=1.1 volume=1.0 lang=es-ES`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if rows := strings.Count(out, "\n"); rows != 1+4+2 {
		t.Errorf("got %d lines want 7:\n%s", rows, out)
	}
}

func TestRunTicksLimit(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(),
		[]string{"-method", "spectral", "-tone", "300", "-amplitude", "0.05", "-interval", "1ms", "-ticks", "3"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "final label: high") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestRunInputFile(t *testing.T) {
	const rate = 44100.0

	var pcm bytes.Buffer
	for i := range 2 * 2048 {
		v := 0.5 * math.Sin(2*math.Pi*100*float64(i)/rate)
		_ = binary.Write(&pcm, binary.LittleEndian, int16(v*32767))
	}

	path := filepath.Join(t.TempDir(), "tone.s16")
	if err := os.WriteFile(path, pcm.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-input", path, "-format", "s16le", "-interval", "1ms"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "final label: low (male)") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestRunStdin(t *testing.T) {
	var pcm bytes.Buffer
	for range 2048 {
		_ = binary.Write(&pcm, binary.LittleEndian, float32(0))
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-input", "-", "-interval", "1ms"}, &pcm, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "final label: unset (neutral)") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown flag", args: []string{"-nope"}, code: 2},
		{name: "input and tone", args: []string{"-input", "x", "-tone", "100"}, code: 1},
		{name: "bad method", args: []string{"-method", "yin"}, code: 1},
		{name: "bad tone", args: []string{"-tone", "abc"}, code: 1},
		{name: "bad format", args: []string{"-input", "-", "-format", "mp3"}, code: 1},
		{name: "missing config", args: []string{"-config", "/nonexistent/pitch.yaml"}, code: 1},
		{name: "missing input", args: []string{"-input", "/nonexistent/audio.f32"}, code: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, strings.NewReader(""), &stdout, &stderr); code != tt.code {
				t.Fatalf("exit code %d want %d (stderr: %s)", code, tt.code, stderr.String())
			}
		})
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := parseSequence(" 110, 0 ,220")
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 3 || seq[0] != 110 || seq[1] != 0 || seq[2] != 220 {
		t.Fatalf("seq=%v", seq)
	}

	if def, _ := parseSequence(""); len(def) != 3 {
		t.Fatalf("default sequence %v", def)
	}
	if _, err := parseSequence("100,-5"); err == nil {
		t.Fatal("expected error for negative tone")
	}
}

func TestRunWithMetricsEndpointAndNoise(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(),
		[]string{"-tone", "220", "-noise", "0.02", "-interval", "1ms", "-ticks", "2", "-metrics", "127.0.0.1:0"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "final label: high") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestBuildCaptureReturnsInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.f32")
	if err := os.WriteFile(path, make([]byte, 4*256), 0o600); err != nil {
		t.Fatal(err)
	}

	capture, input, err := buildCapture(&options{input: path, format: "f32le"}, config.Default(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("buildCapture: %v", err)
	}
	if input == nil {
		t.Fatal("file input returned no closer")
	}

	f, ok := capture.(*session.ReaderCapture).R.(*os.File)
	if !ok {
		t.Fatalf("reader is %T, want *os.File", capture.(*session.ReaderCapture).R)
	}
	if err := input.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("read after close: %v, want os.ErrClosed", err)
	}

	for _, o := range []*options{
		{input: "-", format: "f32le"},
		{tone: "220"},
	} {
		_, input, err := buildCapture(o, config.Default(), strings.NewReader(""))
		if err != nil {
			t.Fatalf("buildCapture(%+v): %v", o, err)
		}
		if input != nil {
			t.Fatalf("buildCapture(%+v) returned a closer for a source it does not own", o)
		}
	}
}
