// File: internal/dbffs/build.go
// Package dbffs
//
// Build assembles an in-memory DBFFS image, the inverse of Reader — used
// by tests to exercise the round-trip law from this design ("building a
// filesystem from a set of (path, bytes) and then find(path) returns
// headers whose streamed contents equal bytes") and by any future
// flash-image packaging tool.
package dbffs

import (
	"bytes"
	"encoding/binary"
)

// Entry is one file or link to pack into a built image. A non-empty
// Link makes this a link entry pointing at Link (resolved relative to
// the root, by design); otherwise it is a file entry holding Data.
type Entry struct {
	Path string
	Data []byte
	Link string
}

// Build serializes entries into a DBFFS image: the filesystem
// signature followed by one entry per Entry, each linked to the next
// by its "next" offset; the last entry's next is 0.
func Build(entries []Entry) []byte {
	var buf bytes.Buffer

	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], FSSignature)
	buf.Write(sig[:])

	for i, e := range entries {
		nameLen := len(e.Path)

		var tailSize int
		var signature uint32
		if e.Link != "" {
			signature = LinkSignature
			tailSize = 1 + len(e.Link)
		} else {
			signature = FileSignature
			tailSize = 4 + len(e.Data)
		}
		entrySize := genericHeaderSize + nameLen + tailSize

		var next uint32
		if i < len(entries)-1 {
			next = uint32(entrySize)
		}

		var head [genericHeaderSize]byte
		binary.LittleEndian.PutUint32(head[0:4], signature)
		binary.LittleEndian.PutUint32(head[4:8], next)
		head[8] = byte(nameLen)
		buf.Write(head[:])
		buf.WriteString(e.Path)

		if e.Link != "" {
			buf.WriteByte(byte(len(e.Link)))
			buf.WriteString(e.Link)
			continue
		}

		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(e.Data)))
		buf.Write(size[:])
		buf.Write(e.Data)
	}

	return buf.Bytes()
}
