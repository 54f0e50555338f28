// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pack is an api for an lz4 backed asset bundle format, used to
// ship shader sources and other renderer resources as a single file.
// The archive itself is not compressed, every entry is individually
// compressed, so any entry can be located through the index and
// decompressed on its own without touching the rest of the file. It can
// be read from concurrently.
package pack

import (
	"bytes"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pack archive")
	ErrNotFound   = errors.New("no entry with that name in the archive")
)

// Sizes relevant to the header of the file
const (
	MagicLength      = 4
	HeaderSizeLength = 8
)

var magic = [MagicLength]byte{'R', 'P', 'K', '\x00'}

// IndexEntry is info for one entry in the archive index. Offset is
// relative to the start of the data section.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the archive header for pack files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewReader(bts)).Decode(obj)
}
