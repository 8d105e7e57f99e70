// Package store implements C4: the artifact store. Two shapes are
// provided — an append-only IndexedStore keyed by a dense integer id,
// and a KeyedStore for string/int keys backed by an in-memory ordered
// tree map (github.com/emirpasic/gods/maps/treemap, the nearest
// pack-grounded equivalent to cvs2svn's own B-tree-equivalent on-disk
// format) that is sorted and flushed once on Commit.
//
// Every record is schema-versioned (spec.md §4.4, §6 "schema version
// tag on every artifact") via a small fixed header the stdlib
// encoding/gob payload follows — gob is used here, rather than a
// pack-provided library, because no example repo carries a
// general-purpose binary/record serialization dependency; see
// DESIGN.md.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
)

// SchemaVersion is bumped whenever a record's on-disk shape changes in
// a way older readers cannot tolerate (spec.md §6).
type SchemaVersion uint16

// encodeRecord gob-encodes payload and prepends a 2-byte schema version
// and a 4-byte length prefix.
func encodeRecord(version SchemaVersion, payload interface{}) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	header := make([]byte, 6)
	binary.BigEndian.PutUint16(header[0:2], uint16(version))
	binary.BigEndian.PutUint32(header[2:6], uint32(body.Len()))
	return append(header, body.Bytes()...), nil
}

// decodeRecord reads one length-prefixed, version-tagged record from
// the start of buf, returning the version, the decoded payload (via
// out, a pointer), and the total number of bytes consumed.
func decodeRecord(buf []byte, out interface{}) (SchemaVersion, int, error) {
	if len(buf) < 6 {
		return 0, 0, fmt.Errorf("truncated record header")
	}
	version := SchemaVersion(binary.BigEndian.Uint16(buf[0:2]))
	length := binary.BigEndian.Uint32(buf[2:6])
	if len(buf) < 6+int(length) {
		return 0, 0, fmt.Errorf("truncated record body: want %d bytes, have %d", length, len(buf)-6)
	}
	dec := gob.NewDecoder(bytes.NewReader(buf[6 : 6+int(length)]))
	if err := dec.Decode(out); err != nil {
		return 0, 0, fmt.Errorf("decoding record: %w", err)
	}
	return version, 6 + int(length), nil
}
