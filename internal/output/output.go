package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vpkplaces/internal/fileutil"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat reports an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Value is anything the writer can encode: a PlaceMap or a ResultSet.
type Value interface {
	json.Marshaler
	yaml.Marshaler
}

// Options controls how values are encoded.
type Options struct {
	Format string
	Pretty bool
}

// FormatName returns the normalized format, defaulting to json.
func (o Options) FormatName() string {
	f := strings.ToLower(strings.TrimSpace(o.Format))
	if f == "" {
		return FormatJSON
	}
	return f
}

// Extension returns the file extension, including the dot, for the format.
func (o Options) Extension() string {
	return "." + o.FormatName()
}

// FileName joins base and the format extension.
func (o Options) FileName(base string) string {
	return base + o.Extension()
}

// Encode writes v to w in the configured format.
func Encode(w io.Writer, v Value, opts Options) error {
	switch opts.FormatName() {
	case FormatJSON:
		return encodeJSON(w, v, opts.Pretty)
	case FormatYAML:
		return encodeYAML(w, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// Marshal returns the encoded form of v.
func Marshal(v Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically writes v to path.
func WriteFile(path string, v Value, opts Options) error {
	data, err := Marshal(v, opts)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encodeJSON(w io.Writer, v Value, pretty bool) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	// Every format ends its document with a newline.
	var buf bytes.Buffer
	if pretty {
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
	} else {
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func encodeYAML(w io.Writer, v Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
