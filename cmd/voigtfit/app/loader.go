package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-linefit/spectrum"
)

var ErrMalformedLine = errors.New("malformed spectrum line")

// DirSource is a corpus of spectrum files in one directory. Identifiers are
// file names in lexical order; hidden files and subdirectories are skipped.
type DirSource struct {
	Dir string
}

func (d DirSource) IDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading spectra directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		ids = append(ids, e.Name())
	}

	return ids, ctx.Err()
}

func (d DirSource) Load(ctx context.Context, id string) (spectrum.Spectrum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ReadSpectrumFile(filepath.Join(d.Dir, id))
}

// FileSource is a corpus of one spectrum file.
type FileSource struct {
	Path string
}

func (f FileSource) IDs(context.Context) ([]string, error) {
	return []string{filepath.Base(f.Path)}, nil
}

func (f FileSource) Load(ctx context.Context, _ string) (spectrum.Spectrum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ReadSpectrumFile(f.Path)
}

func ReadSpectrumFile(path string) (spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadSpectrum(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// ReadSpectrum parses "wavelength flux fluxErr" rows. A missing third column
// leaves FluxErr at zero.
func ReadSpectrum(r io.Reader) (spectrum.Spectrum, error) {
	var s spectrum.Spectrum

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%w %d: %d columns", ErrMalformedLine, line, len(fields))
		}

		var values [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %w", ErrMalformedLine, line, err)
			}

			values[i] = v
		}

		s = append(s, spectrum.Sample{Wavelength: values[0], Flux: values[1], FluxErr: values[2]})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}
