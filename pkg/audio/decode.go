package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// decodeFile opens a cue file. The decoder is chosen by extension; files without a
// known extension are tried as mp3 first, then as wav.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open cue: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, format, err := wav.Decode(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, fmt.Errorf("decode wav %s: %w", path, err)
		}
		return s, format, nil
	case ".mp3":
		s, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			return nil, beep.Format{}, fmt.Errorf("decode mp3 %s: %w", path, err)
		}
		return s, format, nil
	}

	if s, format, err := mp3.Decode(f); err == nil {
		return s, format, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("rewind cue: %w", err)
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported cue format %s: %w", path, err)
	}
	return s, format, nil
}

// CheckFile reports whether path decodes as a cue.
func CheckFile(path string) error {
	s, _, err := decodeFile(path)
	if err != nil {
		return err
	}
	return s.Close()
}
