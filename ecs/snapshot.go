package ecs

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Snapshot layout, little-endian, no header:
//
//	free count   uint64, free list   MaxEntities x uint32
//	active count uint64, active list MaxEntities x uint32
//	created      uint64
//	masks        MaxEntities x 4 x uint64
//	data         MaxComponentKinds x MaxEntities x MaxComponentSize bytes
//
// Unused list entries are written as zero.
const (
	countSize = 8
	indexSize = 4
	maskSize  = maskWords * 8
)

// SnapshotSize returns the exact length of the blob written by Save.
func (s *Storage) SnapshotSize() int {
	n := s.cfg.MaxEntities
	return countSize + n*indexSize +
		countSize + n*indexSize +
		countSize +
		n*maskSize +
		len(s.data)
}

// Save writes the entire fixed-size state as one blob, regardless of how
// many entities are live.
func (s *Storage) Save(w io.Writer) error {
	buf := make([]byte, 0, s.SnapshotSize())
	buf = appendList(buf, s.freeList, s.cfg.MaxEntities)
	buf = appendList(buf, s.activeList, s.cfg.MaxEntities)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.created))
	for _, m := range s.masks {
		for _, word := range m {
			buf = binary.LittleEndian.AppendUint64(buf, word)
		}
	}
	buf = append(buf, s.data...)

	if _, err := w.Write(buf); err != nil {
		return wrapIO(err, "save snapshot")
	}
	return nil
}

func appendList(buf []byte, list []uint32, capacity int) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(list)))
	for _, idx := range list {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	for range capacity - len(list) {
		buf = binary.LittleEndian.AppendUint32(buf, 0)
	}
	return buf
}

// Load reads exactly one blob produced by Save on a storage with the same
// Config and replaces the whole state. Bytes after the blob are left unread
// in r. The blob is validated before anything
// is committed, so a failed Load leaves the storage untouched.
func (s *Storage) Load(r io.Reader) error {
	if s.dispatching > 0 {
		return eris.Wrap(ErrDispatching, "load snapshot")
	}

	buf := make([]byte, s.SnapshotSize())
	if n, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return eris.Wrapf(ErrTruncated, "load snapshot: read %d of %d bytes", n, len(buf))
		}
		return wrapIO(err, "load snapshot")
	}

	st, err := s.decode(buf)
	if err != nil {
		return err
	}

	s.freeList = append(s.freeList[:0], st.free...)
	s.activeList = append(s.activeList[:0], st.active...)
	s.created = st.created
	copy(s.masks, st.masks)
	copy(s.data, st.data)
	for i := range s.activePos {
		s.activePos[i] = notActive
	}
	for pos, idx := range s.activeList {
		s.activePos[idx] = uint32(pos)
	}
	return nil
}

type snapshotState struct {
	free, active []uint32
	created      uint32
	masks        []Mask
	data         []byte
}

func (s *Storage) decode(buf []byte) (*snapshotState, error) {
	n := s.cfg.MaxEntities
	st := &snapshotState{}
	off := 0

	readList := func(name string) ([]uint32, error) {
		count := binary.LittleEndian.Uint64(buf[off:])
		off += countSize
		if count > uint64(n) {
			return nil, eris.Wrapf(ErrFormatMismatch, "load snapshot: %s count %d exceeds capacity %d", name, count, n)
		}
		list := make([]uint32, count)
		for i := range list {
			list[i] = binary.LittleEndian.Uint32(buf[off+i*indexSize:])
		}
		off += n * indexSize
		return list, nil
	}

	var err error
	if st.free, err = readList("free"); err != nil {
		return nil, err
	}
	if st.active, err = readList("active"); err != nil {
		return nil, err
	}

	created := binary.LittleEndian.Uint64(buf[off:])
	off += countSize
	if created > uint64(n) || uint64(len(st.free)+len(st.active)) != created {
		return nil, eris.Wrapf(ErrFormatMismatch, "load snapshot: created %d with %d free and %d active", created, len(st.free), len(st.active))
	}
	st.created = uint32(created)

	st.masks = make([]Mask, n)
	for i := range st.masks {
		for w := range maskWords {
			st.masks[i][w] = binary.LittleEndian.Uint64(buf[off:])
			off += 8
		}
	}
	st.data = buf[off:]

	live := make([]bool, n)
	seen := make([]bool, n)
	for _, list := range [][]uint32{st.free, st.active} {
		for _, idx := range list {
			if idx >= st.created || seen[idx] {
				return nil, eris.Wrapf(ErrFormatMismatch, "load snapshot: bad entity index %d", idx)
			}
			seen[idx] = true
		}
	}
	for _, idx := range st.active {
		live[idx] = true
	}
	for i, m := range st.masks {
		if m.highest() >= s.cfg.MaxComponentKinds {
			return nil, eris.Wrapf(ErrFormatMismatch, "load snapshot: entity %d has kind %d beyond %d", i, m.highest(), s.cfg.MaxComponentKinds)
		}
		if !live[i] && !m.IsZero() {
			return nil, eris.Wrapf(ErrFormatMismatch, "load snapshot: dead entity %d has components %s", i, m)
		}
	}
	return st, nil
}

// SaveFile writes a snapshot to path through a temporary file in the same
// directory, so an interrupted save never clobbers the previous file.
func (s *Storage) SaveFile(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return wrapIO(err, "save "+path)
	}
	tmp := f.Name()

	if err := s.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return wrapIO(err, "save "+path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return wrapIO(err, "save "+path)
	}
	return nil
}

// LoadFile loads a snapshot written by SaveFile. A file longer than
// SnapshotSize is rejected with ErrFormatMismatch; a shorter one fails in
// Load with ErrTruncated.
func (s *Storage) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return wrapIO(err, "load "+path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return wrapIO(err, "load "+path)
	}
	if want := int64(s.SnapshotSize()); info.Mode().IsRegular() && info.Size() > want {
		return eris.Wrapf(ErrFormatMismatch, "load %s: %d bytes, expected %d", path, info.Size(), want)
	}
	return s.Load(f)
}
