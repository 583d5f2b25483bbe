package ndarray

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
)

var magic = [4]byte{'P', 'W', 'P', 'A'}

const formatVersion = 1

// Write serializes the array to path, replacing any previous file.
// The write goes through a temporary sibling and a rename so a
// half-written artifact is never observable.
func Write(path string, a *Array) error {
	if err := a.check(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if len(a.Cols) > math.MaxUint16 {
		return fmt.Errorf("write %s: %d columns exceeds format limit", path, len(a.Cols))
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp) // no-op after rename

	if err := encode(f, a); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encode(f *os.File, a *Array) error {
	w := bufio.NewWriter(f)

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	hdr := make([]byte, 12)
	binary.LittleEndian.PutUint16(hdr[0:2], formatVersion)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(a.Cols)))
	binary.LittleEndian.PutUint64(hdr[4:12], uint64(a.Rows()))
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	for i := range a.Cols {
		c := &a.Cols[i]
		if len(c.Name) > math.MaxUint16 {
			return fmt.Errorf("column name %q too long", c.Name[:32])
		}
		var nameLen [2]byte
		binary.LittleEndian.PutUint16(nameLen[:], uint16(len(c.Name)))
		if _, err := w.Write(nameLen[:]); err != nil {
			return err
		}
		if _, err := w.WriteString(c.Name); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.Kind)); err != nil {
			return err
		}
	}

	var buf [8]byte
	for i := range a.Cols {
		c := &a.Cols[i]
		switch c.Kind {
		case Int64:
			for _, v := range c.Ints {
				binary.LittleEndian.PutUint64(buf[:], uint64(v))
				if _, err := w.Write(buf[:]); err != nil {
					return err
				}
			}
		case Float64:
			for _, v := range c.Floats {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				if _, err := w.Write(buf[:]); err != nil {
					return err
				}
			}
		case String:
			for _, v := range c.Strings {
				var sl [4]byte
				binary.LittleEndian.PutUint32(sl[:], uint32(len(v)))
				if _, err := w.Write(sl[:]); err != nil {
					return err
				}
				if _, err := w.WriteString(v); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("column %q: unknown kind %d", c.Name, c.Kind)
		}
	}

	return w.Flush()
}

// Open reads an artifact from disk. The file is memory-mapped while
// decoding and unmapped before return; feature tables can run large,
// and mapping avoids a second full copy while the header is checked.
func Open(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("open %s: empty file", filepath.Base(path))
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: mmap: %w", filepath.Base(path), err)
	}
	defer data.Unmap()

	a, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return a, nil
}

// decoder walks the mapped bytes with bounds checks on every read.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || d.off+n > len(d.data) {
		return nil, fmt.Errorf("truncated at offset %d (need %d bytes)", d.off, n)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func decode(data []byte) (*Array, error) {
	d := &decoder{data: data}

	m, err := d.bytes(4)
	if err != nil {
		return nil, err
	}
	if [4]byte(m) != magic {
		return nil, fmt.Errorf("bad magic %q", m)
	}
	version, err := d.u16()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}
	ncols, err := d.u16()
	if err != nil {
		return nil, err
	}
	nrows64, err := d.u64()
	if err != nil {
		return nil, err
	}
	if nrows64 > uint64(math.MaxInt32) {
		return nil, fmt.Errorf("row count %d exceeds reader limit", nrows64)
	}
	nrows := int(nrows64)

	a := &Array{Cols: make([]Column, ncols)}
	for i := range a.Cols {
		nameLen, err := d.u16()
		if err != nil {
			return nil, err
		}
		name, err := d.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}
		kindByte, err := d.bytes(1)
		if err != nil {
			return nil, err
		}
		kind := Kind(kindByte[0])
		if kind > String {
			return nil, fmt.Errorf("column %q: unknown kind %d", name, kind)
		}
		a.Cols[i].Name = string(name)
		a.Cols[i].Kind = kind
	}

	for i := range a.Cols {
		c := &a.Cols[i]
		switch c.Kind {
		case Int64:
			b, err := d.bytes(nrows * 8)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c.Name, err)
			}
			c.Ints = make([]int64, nrows)
			for r := 0; r < nrows; r++ {
				c.Ints[r] = int64(binary.LittleEndian.Uint64(b[r*8:]))
			}
		case Float64:
			b, err := d.bytes(nrows * 8)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c.Name, err)
			}
			c.Floats = make([]float64, nrows)
			for r := 0; r < nrows; r++ {
				c.Floats[r] = math.Float64frombits(binary.LittleEndian.Uint64(b[r*8:]))
			}
		case String:
			c.Strings = make([]string, nrows)
			for r := 0; r < nrows; r++ {
				sl, err := d.u32()
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", c.Name, r, err)
				}
				b, err := d.bytes(int(sl))
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", c.Name, r, err)
				}
				c.Strings[r] = string(b)
			}
		}
	}

	if d.off != len(d.data) {
		return nil, fmt.Errorf("%d trailing bytes after body", len(d.data)-d.off)
	}
	return a, nil
}
