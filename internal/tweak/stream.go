package tweak

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Stream is a named, ordered list of tweaks. Later tweaks of the same kind
// apply after earlier ones.
type Stream struct {
	Name   string
	Tweaks []Tweak
}

// NewStream creates a stream holding the given tweaks.
func NewStream(name string, tweaks ...Tweak) *Stream {
	return &Stream{Name: name, Tweaks: tweaks}
}

// Clone deep copies the stream.
func (s *Stream) Clone() *Stream {
	c := &Stream{Name: s.Name, Tweaks: make([]Tweak, len(s.Tweaks))}
	for i, t := range s.Tweaks {
		c.Tweaks[i] = t.Clone()
	}
	return c
}

// Of returns the tweaks of s with concrete type T, in order.
func Of[T Tweak](s *Stream) []T {
	if s == nil {
		return nil
	}
	var out []T
	for _, t := range s.Tweaks {
		if x, ok := t.(T); ok {
			out = append(out, x)
		}
	}
	return out
}

// First returns the first tweak of type T.
func First[T Tweak](s *Stream) (T, bool) {
	var zero T
	if all := Of[T](s); len(all) > 0 {
		return all[0], true
	}
	return zero, false
}

// MarshalJSON writes {"name": ..., "tweaks": [{"kind": ..., ...}]}.
func (s *Stream) MarshalJSON() ([]byte, error) {
	out := []byte(`{}`)
	out, err := sjson.SetBytes(out, "name", s.Name)
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetRawBytes(out, "tweaks", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for _, t := range s.Tweaks {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, errors.Wrapf(err, "tweak %s", t.Kind())
		}
		if e, ok := t.(*EntityFilter); ok {
			if raw, err = sjson.SetBytes(raw, "classes", e.ClassList()); err != nil {
				return nil, err
			}
		}
		if raw, err = sjson.SetBytes(raw, "kind", string(t.Kind())); err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "tweaks.-1", raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalJSON reads what MarshalJSON writes. Tweaks of unknown kinds are
// an error.
func (s *Stream) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid stream json")
	}
	doc := gjson.ParseBytes(data)
	s.Name = doc.Get("name").String()
	s.Tweaks = nil
	var err error
	doc.Get("tweaks").ForEach(func(_, v gjson.Result) bool {
		kind := Kind(v.Get("kind").String())
		t := New(kind)
		if t == nil {
			err = errors.Errorf("unknown tweak kind %q", kind)
			return false
		}
		if err = json.Unmarshal([]byte(v.Raw), t); err != nil {
			err = errors.Wrapf(err, "tweak %s", kind)
			return false
		}
		if e, ok := t.(*EntityFilter); ok {
			for _, c := range v.Get("classes").Array() {
				e.AddClass(c.String())
			}
		}
		s.Tweaks = append(s.Tweaks, t)
		return true
	})
	return err
}
