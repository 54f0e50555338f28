// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in the header,
// it is computed from the entries that get added.
func NewBuilder(header Header) *Builder {
	return &Builder{header: header}
}

type pendingEntry struct {

	// Name is the name the entry is looked up by
	Name string

	// Size of the entry before compression
	Size int64

	compressed []byte
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder is the
// way to create one. Whenever Add is called the data is compressed
// immediately; WriteTo bundles everything together with the index.
type Builder struct {
	header Header

	mutex   sync.Mutex
	entries []pendingEntry
}

// Add appends data to the builder with a given name. Will block until
// lz4 finishes compression. Is safe to use concurrently in different
// goroutines.
func (b *Builder) Add(name string, data []byte) error {
	var compressed bytes.Buffer
	writer := lz4.NewWriter(&compressed)
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.entries = append(b.entries, pendingEntry{
		Name:       name,
		Size:       int64(len(data)),
		compressed: compressed.Bytes(),
	})
	return nil
}

// WriteTo bundles and writes all of the entries added to the Builder
// into a pack archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = nil
	var offset int64
	for _, e := range b.entries {
		header.Index = append(header.Index, IndexEntry{
			Name:           e.Name,
			Offset:         offset,
			Size:           e.Size,
			CompressedSize: int64(len(e.compressed)),
		})
		offset += int64(len(e.compressed))
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var written int64
	n, err := w.Write(magic[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	headerSize := make([]byte, HeaderSizeLength)
	binary.LittleEndian.PutUint64(headerSize, uint64(len(rawHeader)))
	n, err = w.Write(headerSize)
	written += int64(n)
	if err != nil {
		return written, err
	}

	n, err = w.Write(rawHeader)
	written += int64(n)
	if err != nil {
		return written, err
	}

	for _, e := range b.entries {
		n, err = w.Write(e.compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	b.entries = b.entries[:0]
	return written, nil
}
