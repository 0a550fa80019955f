package hookconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

const hooksKey = "hooks"

// Document is a Claude Code settings file. Only the hooks entries of the
// events being merged are ever decoded; every other key is carried as raw
// JSON.
type Document struct {
	fields map[string]json.RawMessage
	hooks  map[string]json.RawMessage
}

// Binding is a single hook command inside a group.
type Binding struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// Group is a matcher with its bindings.
type Group struct {
	Matcher string    `json:"matcher"`
	Hooks   []Binding `json:"hooks"`
}

// Entry is one element of an event's hook sequence. Group is nil when the
// element does not have the shape of a binding group; such entries pass
// through a merge untouched.
type Entry struct {
	Raw   json.RawMessage
	Group *Group
}

// Parse reads a settings document. Comments and trailing commas are
// tolerated. Empty input is an empty document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{fields: map[string]json.RawMessage{}}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	clean := jsonc.ToJSON(data)
	trimmed := bytes.TrimSpace(clean)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", domain.ErrConfigCorrupt)
	}
	if err := json.Unmarshal(trimmed, &doc.fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigCorrupt, err)
	}

	if raw, ok := doc.fields[hooksKey]; ok {
		if !isObject(raw) {
			return nil, fmt.Errorf("%w: %q is not an object", domain.ErrConfigCorrupt, hooksKey)
		}
		if err := json.Unmarshal(raw, &doc.hooks); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigCorrupt, err)
		}
	}
	return doc, nil
}

// Load reads the document at path. A missing file is an empty document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes the document to path through a temp file and rename.
func Save(path string, doc *Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Bytes renders the document with sorted keys, two-space indentation and a
// trailing newline. The output of Bytes parses back to identical bytes.
func (d *Document) Bytes() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.fields)+1)
	for k, v := range d.fields {
		out[k] = v
	}
	if d.hooks != nil {
		raw, err := marshal(d.hooks)
		if err != nil {
			return nil, err
		}
		out[hooksKey] = raw
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return buf.Bytes(), nil
}

// Entries returns the hook sequence of an event. A missing or non-array
// value is an empty sequence.
func (d *Document) Entries(event string) []Entry {
	raw, ok := d.hooks[event]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{Raw: item, Group: decodeGroup(item)})
	}
	return entries
}

// SetEntries replaces the hook sequence of an event. Entries are written
// from their Raw form when present.
func (d *Document) SetEntries(event string, entries []Entry) error {
	items := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		raw := e.Raw
		if len(raw) == 0 {
			var err error
			if raw, err = marshal(e.Group); err != nil {
				return err
			}
		}
		items = append(items, raw)
	}

	raw, err := marshal(items)
	if err != nil {
		return err
	}
	if d.hooks == nil {
		d.hooks = map[string]json.RawMessage{}
	}
	d.hooks[event] = raw
	return nil
}

// decodeGroup returns nil unless item is an object whose hooks value is an
// array. Non-object bindings and non-string commands decode as empty.
func decodeGroup(item json.RawMessage) *Group {
	var fields map[string]json.RawMessage
	if !isObject(item) || json.Unmarshal(item, &fields) != nil {
		return nil
	}
	var bindings []json.RawMessage
	if json.Unmarshal(fields[hooksKey], &bindings) != nil || bindings == nil {
		return nil
	}

	g := &Group{Hooks: make([]Binding, 0, len(bindings))}
	_ = json.Unmarshal(fields["matcher"], &g.Matcher)
	for _, b := range bindings {
		var obj map[string]json.RawMessage
		var binding Binding
		if json.Unmarshal(b, &obj) == nil {
			_ = json.Unmarshal(obj["type"], &binding.Type)
			_ = json.Unmarshal(obj["command"], &binding.Command)
		}
		g.Hooks = append(g.Hooks, binding)
	}
	return g
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
