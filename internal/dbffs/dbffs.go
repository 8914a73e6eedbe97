// File: internal/dbffs/dbffs.go
// Package dbffs implements the read-only, linear packed flash filesystem
// used to serve the UI.
//
// Grounded on original_source/user/fs/dbffs.c and dbffs-std.h, the only
// place in the retrieval pack implementing a packed flash filesystem.
// Go's equivalent of "flash_read(addr, buf, n)" is
// io.ReaderAt.ReadAt, so the reader is built around an io.ReaderAt
// rather than a raw base-address/length pair.
package dbffs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// On-disk signatures. FSSignature marks the filesystem root —
// a bare 4-byte marker, not a full entry header (grounded on
// init_dbffs in original_source: it scans for the 4 bytes, then
// treats the next address as the first real entry — there is no
// generic header attached to the root marker itself).
const (
	FSSignature uint32 = 0xDBFF5000
	FileSignature uint32 = 0xDBFF500F
	DirSignature uint32 = 0xDBFF500D // reserved; rejected explicitly, see SPEC_FULL.md
	LinkSignature uint32 = 0xDBFF5001

	genericHeaderSize = 9 // signature(4) + next(4) + name_len(1)
)

var (
	// ErrNotFound is returned when Find walks off the end of the entry
	// chain (next == 0) without a name match.
	ErrNotFound = errors.New("dbffs: not found")
	// ErrBadSignature marks a corrupt filesystem.
	ErrBadSignature = errors.New("dbffs: bad filesystem signature")
	errReservedType = errors.New("dbffs: reserved directory entry type")
)

// FileHeader is the fully-resolved result of Find for a file entry.
type FileHeader struct {
	Name string
	Size uint32
	DataAddr int64
}

// Reader walks a DBFFS image over an io.ReaderAt (the flash contract).
type Reader struct {
	flash io.ReaderAt
	firstAddr int64
}

// NewReader scans for the filesystem signature at base and returns a
// Reader positioned at the first entry.
func NewReader(flash io.ReaderAt, base int64) (*Reader, error) {
	var sigBuf [4]byte
	if _, err := flash.ReadAt(sigBuf[:], base); err != nil {
		return nil, fmt.Errorf("dbffs: read signature: %w", err)
	}
	if binary.LittleEndian.Uint32(sigBuf[:]) != FSSignature {
		return nil, ErrBadSignature
	}
	return &Reader{flash: flash, firstAddr: base + 4}, nil
}

type genericHeader struct {
	signature uint32
	next uint32
	name string
}

func (r *Reader) loadGenericHeader(addr int64) (genericHeader, error) {
	var head [genericHeaderSize]byte
	if _, err := r.flash.ReadAt(head[:], addr); err != nil {
		return genericHeader{}, err
	}
	sig := binary.LittleEndian.Uint32(head[0:4])
	next := binary.LittleEndian.Uint32(head[4:8])
	nameLen := head[8]

	nameBuf := make([]byte, nameLen)
	if nameLen > 0 {
		if _, err := r.flash.ReadAt(nameBuf, addr+genericHeaderSize); err != nil {
			return genericHeader{}, err
		}
	}
	return genericHeader{signature: sig, next: next, name: string(nameBuf)}, nil
}

// Find resolves path to a file header, following link entries (spec
// §4.D). Links are resolved relative to the root.
func (r *Reader) Find(path string) (*FileHeader, error) {
	return r.find(path, r.firstAddr)
}

func (r *Reader) find(path string, addr int64) (*FileHeader, error) {
	for {
		hdr, err := r.loadGenericHeader(addr)
		if err != nil {
			return nil, fmt.Errorf("dbffs: read entry at 0x%x: %w", addr, err)
		}
		if hdr.name == path {
			switch hdr.signature {
			case FileSignature:
				return r.loadFileTail(addr, hdr)
			case LinkSignature:
				target, err := r.loadLinkTarget(addr, hdr)
				if err != nil {
					return nil, err
				}
				return r.find(target, r.firstAddr)
			case DirSignature:
				return nil, errReservedType
			default:
				// Any other signature is treated as a miss; no warning is logged.
			}
		}
		if hdr.next == 0 {
			return nil, ErrNotFound
		}
		addr += int64(hdr.next)
	}
}

func (r *Reader) loadFileTail(entryAddr int64, hdr genericHeader) (*FileHeader, error) {
	sizeAddr := entryAddr + genericHeaderSize + int64(len(hdr.name))
	var sizeBuf [4]byte
	if _, err := r.flash.ReadAt(sizeBuf[:], sizeAddr); err != nil {
		return nil, fmt.Errorf("dbffs: read file size: %w", err)
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	return &FileHeader{
		Name: hdr.name,
		Size: size,
		DataAddr: sizeAddr + 4,
	}, nil
}

func (r *Reader) loadLinkTarget(entryAddr int64, hdr genericHeader) (string, error) {
	tlenAddr := entryAddr + genericHeaderSize + int64(len(hdr.name))
	var tlenBuf [1]byte
	if _, err := r.flash.ReadAt(tlenBuf[:], tlenAddr); err != nil {
		return "", fmt.Errorf("dbffs: read link target length: %w", err)
	}
	targetLen := tlenBuf[0]
	target := make([]byte, targetLen)
	if targetLen > 0 {
		if _, err := r.flash.ReadAt(target, tlenAddr+1); err != nil {
			return "", fmt.Errorf("dbffs: read link target: %w", err)
		}
	}
	return string(target), nil
}

// ReadFile streams up to len(buf) bytes of a resolved file's data
// starting at offset.
func (r *Reader) ReadFile(h *FileHeader, offset int64, buf []byte) (int, error) {
	if offset >= int64(h.Size) {
		return 0, io.EOF
	}
	remaining := int64(h.Size) - offset
	if int64(len(buf)) > remaining {
		buf = buf[:remaining]
	}
	return r.flash.ReadAt(buf, h.DataAddr+offset)
}
