package cdrom

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDisc reads a disc image from either a .cue sheet (FILE/TRACK
// pairs, one bin blob per FILE line) or a single raw .bin/.img track
// file, per the "Disc image" description of the external interface:
// a cue-sheet plus raw track blobs, each track read whole into memory.
func LoadDisc(path string) (*Disc, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return loadCueSheet(path)
	}
	return loadRawTrack(path)
}

func loadRawTrack(path string) (*Disc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading disc image: %w", err)
	}
	disc := NewDisc(filepath.Base(path))
	disc.AddTrack(data)
	return disc, nil
}

// loadCueSheet parses the handful of directives this core cares about:
//
//	FILE "track01.bin" BINARY
//	  TRACK 01 MODE2/2352
//	  INDEX 01 00:00:00
//
// Anything else (CDTEXT, pregap markers, audio tracks) is ignored;
// every FILE directive contributes exactly one whole-file track.
func loadCueSheet(cuePath string) (*Disc, error) {
	f, err := os.Open(cuePath)
	if err != nil {
		return nil, fmt.Errorf("reading cue sheet: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(cuePath)
	disc := NewDisc(filepath.Base(strings.TrimSuffix(cuePath, filepath.Ext(cuePath))))

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		upper := strings.ToUpper(line)
		if !strings.HasPrefix(upper, "FILE ") {
			continue
		}
		name, ok := quotedField(line)
		if !ok {
			return nil, fmt.Errorf("malformed FILE line: %q", line)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading track %q: %w", name, err)
		}
		disc.AddTrack(data)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning cue sheet: %w", err)
	}
	if disc.TrackCount() == 0 {
		return nil, fmt.Errorf("cue sheet %q named no FILE tracks", cuePath)
	}
	return disc, nil
}

func quotedField(line string) (string, bool) {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return line[start+1 : start+1+end], true
}
