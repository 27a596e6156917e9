package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the serialization of a Program.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "hirpack"
	default:
		return "unknown"
	}
}

// Ext is the file extension used for the format.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat accepts "json" and "hirpack" (or "msgpack").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "hirpack", "msgpack":
		return FormatMsgpack, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected: json|hirpack)", ErrUnknownFormat, s)
	}
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".hirpack", ".msgpack":
		return FormatMsgpack, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Marshal serializes p.
func Marshal(p *Program, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetOmitEmpty(true)
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

// Unmarshal parses data and checks the schema version.
func Unmarshal(data []byte, format Format) (*Program, error) {
	var p Program
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &p)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if p.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrVersion, p.Version, SchemaVersion)
	}
	return &p, nil
}

// ReadFile loads a program, choosing the format by extension.
func ReadFile(path string) (*Program, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteFile stores p, choosing the format by extension. The file is replaced atomically.
func WriteFile(path string, p *Program) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(p, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
