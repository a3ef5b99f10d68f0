// Package gtf reads GTF-like genome annotation files. Only the free-text
// attribute column is of interest here; the reader exposes it per record and
// Attribute extracts individual quoted values from it.
package gtf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// HeaderLines is the number of leading lines skipped before records start.
// Cuffcompare and Ensembl GTF dumps carry a fixed-size comment preamble.
const HeaderLines = 6

// Record is one row of a GTF-like annotation source. All columns except the
// attribute text are carried verbatim and unused by this pipeline.
type Record struct {
	Fields     []string
	Attributes string
}

// Reader streams records from a GTF-like file.
type Reader struct {
	scanner  *bufio.Scanner
	file     *os.File
	gz       *gzip.Reader
	skip     int
	lineNum  int
	skipDone bool
}

// Open opens a GTF-like file for reading, transparently handling gzip.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}

	r := &Reader{file: f, skip: HeaderLines}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		r.gz = gz
		src = gz
	}

	r.scanner = bufio.NewScanner(src)
	buf := make([]byte, 0, 64*1024)
	r.scanner.Buffer(buf, 1024*1024)

	return r, nil
}

// NewReader creates a reader from an io.Reader, skipping the given number of
// leading lines before records start.
func NewReader(src io.Reader, skip int) *Reader {
	r := &Reader{skip: skip}
	r.scanner = bufio.NewScanner(src)
	buf := make([]byte, 0, 64*1024)
	r.scanner.Buffer(buf, 1024*1024)
	return r
}

// SetHeaderLines overrides the number of skipped preamble lines.
func (r *Reader) SetHeaderLines(n int) {
	r.skip = n
}

// Next returns the next record, or nil at end of input.
func (r *Reader) Next() (*Record, error) {
	if !r.skipDone {
		for i := 0; i < r.skip; i++ {
			if !r.scanner.Scan() {
				if err := r.scanner.Err(); err != nil {
					return nil, fmt.Errorf("scan annotation file: %w", err)
				}
				return nil, nil
			}
			r.lineNum++
		}
		r.skipDone = true
	}

	for r.scanner.Scan() {
		r.lineNum++
		line := r.scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			continue
		}

		return &Record{Fields: fields, Attributes: fields[8]}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan annotation file: %w", err)
	}
	return nil, nil
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Attribute extracts the value for a key from a GTF attribute column.
// The value is the text strictly between the first pair of double quotes
// following the first occurrence of the key token, mirroring the
// `key "value";` token format. The second return is false when the key is
// absent or carries no quoted value.
func Attribute(attrText, key string) (string, bool) {
	idx := strings.Index(attrText, key)
	if idx == -1 {
		return "", false
	}

	rest := attrText[idx+len(key):]
	open := strings.Index(rest, `"`)
	if open == -1 {
		return "", false
	}
	rest = rest[open+1:]
	end := strings.Index(rest, `"`)
	if end == -1 {
		return "", false
	}

	return rest[:end], true
}
