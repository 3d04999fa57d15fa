package library

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk form of a batch of books. YAML and JSON both decode,
// e.g.
//
//	books:
//	  - name: Animal Farm
//	    author: George Orwell
//	    print_year: 1945
//	    read: true
//
// A null entry decodes to a nil *Book, which AddAll rejects as a whole.
type Manifest struct {
	Books []*Book `yaml:"books" json:"books"`
}

// LoadManifest reads the manifest file at path.
func LoadManifest(path string) ([]*Book, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ReadManifest(bytes.NewReader(data))
}

// ReadManifest decodes a manifest, rejecting unknown fields.
func ReadManifest(r io.Reader) ([]*Book, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return []*Book{}, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Books == nil {
		return []*Book{}, nil
	}
	return m.Books, nil
}
