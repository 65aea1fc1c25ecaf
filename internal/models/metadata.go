package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known metadata keys. Platforms echo back whatever they return; these
// are the keys the adapters set themselves.
const (
	MetaPlatform     = "platform"
	MetaEndpoint     = "endpoint"
	MetaContainerID  = "container_id"
	MetaChildrenIDs  = "children_ids"
	MetaPermalink    = "permalink"
	MetaPublishID    = "publish_id"
	MetaArticleToken = "article_token"
	MetaTitle        = "title"
	MetaLink         = "link"
	MetaPrivacy      = "privacy"
)

// Metadata is a string-keyed map that keeps insertion order, so payloads
// round-trip through JSON columns in the order they were written.
type Metadata struct {
	keys   []string
	values map[string]any
}

func NewMetadata() Metadata {
	return Metadata{values: map[string]any{}}
}

func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m Metadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// String returns the value for key if it is a string.
func (m Metadata) String(key string) string {
	v, ok := m.values[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m Metadata) Len() int { return len(m.keys) }

func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = NewMetadata()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("metadata must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected metadata key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("metadata key %q: %w", key, err)
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// Scan implements sql.Scanner for json/jsonb columns.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = NewMetadata()
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
