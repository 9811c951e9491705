package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoConverter is returned when rsvg-convert is not on PATH.
var ErrNoConverter = errors.New("rsvg-convert not found (install librsvg: brew install librsvg, apt install librsvg2-bin, apk add rsvg-convert)")

// converter is the conversion binary; tests point it elsewhere.
var converter = "rsvg-convert"

// ToPDF converts SVG bytes to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG at the given scale factor.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := exec.LookPath(converter)
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", format, ErrNoConverter)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}
