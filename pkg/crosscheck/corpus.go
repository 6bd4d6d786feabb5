package crosscheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// compressedSuffix marks corpus files stored as lz4 frames.
const compressedSuffix = ".lz4"

// Case is a saved mismatch that replay re-runs.
type Case struct {
	File     string   `yaml:"file"`
	Language string   `yaml:"language"`
	Pattern  string   `yaml:"pattern"`
	Expected []string `yaml:"expected,omitempty"`
	Actual   []string `yaml:"actual,omitempty"`
}

// Corpus is the on-disk collection of mismatching cases.
type Corpus struct {
	Cases []Case `yaml:"cases"`
}

// Add records a mismatch found in file. A case with the same file and
// pattern replaces the earlier one.
func (c *Corpus) Add(file, language string, m Mismatch) {
	entry := Case{
		File:     file,
		Language: language,
		Pattern:  m.Pattern,
		Expected: m.Expected,
		Actual:   m.Actual,
	}

	for i := range c.Cases {
		if c.Cases[i].File == file && c.Cases[i].Pattern == m.Pattern {
			c.Cases[i] = entry

			return
		}
	}

	c.Cases = append(c.Cases, entry)
}

// LoadCorpus reads a corpus file. Files ending in .lz4 are decompressed.
func LoadCorpus(path string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, compressedSuffix) {
		r = lz4.NewReader(file)
	}

	return DecodeCorpus(r)
}

// LoadCorpusOrEmpty is LoadCorpus, except that a missing file yields an
// empty corpus.
func LoadCorpusOrEmpty(path string) (*Corpus, error) {
	corpus, err := LoadCorpus(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Corpus{}, nil
	}

	return corpus, err
}

// DecodeCorpus parses YAML corpus data.
func DecodeCorpus(r io.Reader) (*Corpus, error) {
	var corpus Corpus

	err := yaml.NewDecoder(r).Decode(&corpus)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	return &corpus, nil
}

// Save writes the corpus to path, compressing when path ends in .lz4.
func (c *Corpus) Save(path string) error {
	var buf bytes.Buffer

	if strings.HasSuffix(path, compressedSuffix) {
		zw := lz4.NewWriter(&buf)

		if err := c.Encode(zw); err != nil {
			return err
		}

		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress corpus: %w", err)
		}
	} else if err := c.Encode(&buf); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	return nil
}

// Encode writes the corpus as YAML.
func (c *Corpus) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	return nil
}
