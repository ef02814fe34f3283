package save

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads one save document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("save: decode: %w", err)
	}
	return &doc, nil
}

// Load reads and decodes the save file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("save: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("save: %s: %w", path, err)
	}
	return doc, nil
}
