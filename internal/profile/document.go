package profile

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Document is the JSON profile shared by the modules during one save or
// load. Paths use gjson syntax; each module keeps to its own top-level key.
type Document struct {
	mu  sync.Mutex
	raw []byte
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{raw: []byte(`{}`)}
}

// ParseDocument wraps raw, which must be a JSON object.
func ParseDocument(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("profile is not valid json")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, errors.New("profile is not a json object")
	}
	return &Document{raw: append([]byte(nil), raw...)}, nil
}

// Get returns the value at path.
func (d *Document) Get(path string) gjson.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gjson.GetBytes(d.raw, path)
}

// Set stores v at path. Values that are not JSON basics are encoded with
// encoding/json.
func (d *Document) Set(path string, v interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := sjson.SetBytes(d.raw, path, v)
	if err != nil {
		return errors.Wrapf(err, "set %s", path)
	}
	d.raw = raw
	return nil
}

// SetRaw stores already encoded JSON at path.
func (d *Document) SetRaw(path string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := sjson.SetRawBytes(d.raw, path, value)
	if err != nil {
		return errors.Wrapf(err, "set %s", path)
	}
	d.raw = raw
	return nil
}

// Delete removes path.
func (d *Document) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := sjson.DeleteBytes(d.raw, path)
	if err != nil {
		return errors.Wrapf(err, "delete %s", path)
	}
	d.raw = raw
	return nil
}

// Bytes returns the indented document.
func (d *Document) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return pretty.Pretty(d.raw)
}
