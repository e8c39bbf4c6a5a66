package detect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"zsmart-installer/internal/logger"
)

// CommitVersion records v as the installed version by rewriting the
// manifest's "version" field. A manifest that already declares v is left
// alone. Otherwise only the version value is replaced, keeping the rest of
// the file byte for byte; a missing manifest is created with just the name
// and version.
func (d Detector) CommitVersion(dir, v string) error {
	path := filepath.Join(dir, d.Manifest)

	if st := d.Detect(dir); st.Present && st.Version == v {
		logger.Debug("[DEBUG] %s already declares version %s\n", path, v)
		return nil
	}

	mode := fs.FileMode(0o644)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		raw = nil
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	default:
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
	}

	out, err := d.withVersion(raw, v)
	if err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}

	// Write next to the manifest and rename so a crash never leaves half a file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, mode); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// withVersion returns manifest with its top-level "version" set to v.
func (d Detector) withVersion(manifest []byte, v string) ([]byte, error) {
	encoded, err := encodeJSON(v, "")
	if err != nil {
		return nil, err
	}

	if manifest != nil {
		spliced, ok, err := replaceTopLevel(manifest, "version", encoded)
		if err != nil {
			return nil, err
		}
		if ok {
			return spliced, nil
		}
	}

	// No version field to replace: re-encode the whole object
	fields := map[string]json.RawMessage{}
	if manifest != nil {
		if err := json.Unmarshal(manifest, &fields); err != nil {
			return nil, err
		}
	} else {
		name, err := encodeJSON(d.AppName, "")
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	fields["version"] = encoded
	return encodeJSON(fields, "  ")
}

// replaceTopLevel swaps the raw value of key in a JSON object for value.
// ok is false when the object has no such key.
func replaceTopLevel(doc []byte, key string, value []byte) (out []byte, ok bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return nil, false, errors.New("manifest is not a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false, err
		}
		name, _ := tok.(string)

		var current json.RawMessage
		if err := dec.Decode(&current); err != nil {
			return nil, false, err
		}
		if name != key {
			continue
		}

		end := int(dec.InputOffset())
		start := end - len(current)
		if start < 0 || !bytes.Equal(doc[start:end], current) {
			return nil, false, nil
		}
		out = make([]byte, 0, len(doc)-len(current)+len(value))
		out = append(out, doc[:start]...)
		out = append(out, value...)
		out = append(out, doc[end:]...)
		return out, true, nil
	}
	return nil, false, nil
}

// encodeJSON marshals v without HTML escaping. A non-empty indent yields a
// trailing newline, as in a hand-written manifest.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if indent == "" {
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
	return buf.Bytes(), nil
}
