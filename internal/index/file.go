package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// File format: dim (uint32 LE), count (uint32 LE), then count*dim float32 LE
// values in position order. Save and Load round-trip bit-exactly, which keeps
// the index aligned with the separately persisted chunk store.

// Save writes the index to path.
func (f *Flat) Save(path string) error {
	buf := make([]byte, 8+4*f.dim*len(f.vectors))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.dim))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(f.vectors)))
	off := 8
	for _, vec := range f.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Flat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("index file %s: truncated header", path)
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	if dim <= 0 {
		return nil, fmt.Errorf("index file %s: invalid dimension %d", path, dim)
	}
	if len(data) != 8+4*dim*count {
		return nil, fmt.Errorf("index file %s: size %d does not match %d vectors of dimension %d",
			path, len(data), count, dim)
	}

	f := &Flat{dim: dim, vectors: make([][]float32, count)}
	off := 8
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		f.vectors[i] = vec
	}
	return f, nil
}
