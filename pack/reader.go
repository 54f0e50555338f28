// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
)

// Open opens the pack archive from r. It checks that r actually holds a
// pack archive and reads the full index up front, so entries can be
// located without scanning.
func Open(r io.ReaderAt) (*Archive, error) {
	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(magicBytes, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeLength {
		return nil, ErrFileFormat
	}
	headerSize := int64(binary.LittleEndian.Uint64(headerSizeBytes))

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader:    r,
		header:    header,
		dataStart: MagicLength + HeaderSizeLength + headerSize,
	}, nil
}

// Archive provides concurrent io for a pack file, and can provide an
// io.Reader for each entry separately to perform actions on.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
}

// Header returns the archive header, index included.
func (a *Archive) Header() Header {
	return a.header
}

// Open returns a Reader with the decompressed contents of the named
// entry.
func (a *Archive) Open(name string) (io.Reader, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataStart+entry.Offset, entry.CompressedSize)
	return io.LimitReader(lz4.NewReader(section), entry.Size), nil
}

// ReadAll returns the entire contents of an entry with a given name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	return ioutil.ReadAll(r)
}

func (a *Archive) find(name string) (IndexEntry, error) {
	for _, e := range a.header.Index {
		if e.Name == name {
			return e, nil
		}
	}
	return IndexEntry{}, ErrNotFound
}
