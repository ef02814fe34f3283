package save

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CardID keeps the digits of a CardID exactly as written in the save.
// Saves normally store it as a JSON number; quoted strings are accepted too.
type CardID string

// UnmarshalJSON accepts a number or a string.
func (c *CardID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("save: CardID: %w", err)
		}
		*c = CardID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("save: CardID: %w", err)
	}
	*c = CardID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers.
func (c CardID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(c), 10, 64); err == nil {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

// DeckEntry is one key/value pair of a CustomDeck mapping.
type DeckEntry struct {
	ID    string
	Sheet DeckSheet
}

// DeckMap is the CustomDeck mapping with its keys kept in document order.
// The first key is the deck id used as the CardID prefix.
type DeckMap []DeckEntry

// First returns the first entry in document order.
func (m DeckMap) First() (DeckEntry, bool) {
	if len(m) == 0 {
		return DeckEntry{}, false
	}
	return m[0], true
}

// UnmarshalJSON walks the object token by token so key order survives.
func (m *DeckMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("save: CustomDeck: %w", err)
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("save: CustomDeck: expected object, got %v", tok)
	}

	out := DeckMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("save: CustomDeck: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("save: CustomDeck: unexpected key %v", keyTok)
		}
		var sheet DeckSheet
		if err := dec.Decode(&sheet); err != nil {
			return fmt.Errorf("save: CustomDeck[%s]: %w", key, err)
		}
		out = append(out, DeckEntry{ID: key, Sheet: sheet})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("save: CustomDeck: %w", err)
	}

	*m = out
	return nil
}

// MarshalJSON writes the entries back as an object in their stored order.
func (m DeckMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Sheet)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
