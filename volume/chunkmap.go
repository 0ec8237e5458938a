package volume

import (
	"fmt"

	"github.com/gekko3d/voxphys/geom"
)

const DefaultChunkSize = 16

// ChunkID identifies a chunk within one ChunkStorage. Ids are handed out by a
// counter owned by the storage, so independent storages never interact.
type ChunkID uint32

type Chunk struct {
	ID      ChunkID
	Coords  geom.IVec
	Payload []Voxel
	filled  int // non-ambient voxels
}

func (c *Chunk) IsEmpty() bool {
	return c.filled == 0
}

// ChunkStorage is a sparse voxel storage made of equally sized cubic chunks.
// Chunks are created on first write and released when every voxel in them
// returns to ambient.
type ChunkStorage struct {
	Chunks map[geom.IVec]*Chunk

	chunkSize int
	ambient   Voxel
	nextID    ChunkID

	boundsDirty bool
	cachedLo    geom.IVec
	cachedHi    geom.IVec
	cachedOk    bool
}

func NewChunkStorage(ambient Voxel, chunkSize int) *ChunkStorage {
	if chunkSize <= 0 {
		panic(fmt.Sprintf("chunk size must be positive, got %d", chunkSize))
	}
	return &ChunkStorage{
		Chunks:      make(map[geom.IVec]*Chunk),
		chunkSize:   chunkSize,
		ambient:     ambient,
		boundsDirty: true,
	}
}

func (s *ChunkStorage) ChunkSize() int {
	return s.chunkSize
}

func (s *ChunkStorage) Ambient() Voxel {
	return s.ambient
}

func (s *ChunkStorage) locate(p geom.IVec) (geom.IVec, int) {
	key, local := p.FloorDiv(s.chunkSize)
	n := s.chunkSize
	return key, local[0] + local[1]*n + local[2]*n*n
}

func (s *ChunkStorage) newChunk(key geom.IVec) *Chunk {
	n := s.chunkSize
	c := &Chunk{
		ID:      s.nextID,
		Coords:  key,
		Payload: make([]Voxel, n*n*n),
	}
	s.nextID++
	if s.ambient != 0 {
		for i := range c.Payload {
			c.Payload[i] = s.ambient
		}
	}
	return c
}

func (s *ChunkStorage) Get(p geom.IVec) Voxel {
	key, idx := s.locate(p)
	c, ok := s.Chunks[key]
	if !ok {
		return s.ambient
	}
	return c.Payload[idx]
}

func (s *ChunkStorage) Modify(p geom.IVec, fn func(v *Voxel)) {
	key, idx := s.locate(p)
	c, ok := s.Chunks[key]
	if !ok {
		c = s.newChunk(key)
		s.Chunks[key] = c
	}

	before := c.Payload[idx]
	fn(&c.Payload[idx])
	after := c.Payload[idx]
	if before == after {
		return
	}

	switch {
	case before == s.ambient:
		c.filled++
	case after == s.ambient:
		c.filled--
	}
	s.boundsDirty = true

	if c.IsEmpty() {
		delete(s.Chunks, key)
	}
}

func (s *ChunkStorage) Contains(p geom.IVec) bool {
	key, _ := s.locate(p)
	_, ok := s.Chunks[key]
	return ok
}

// IndexOf returns the chunk id and the offset inside that chunk for p, if p
// is materialized.
func (s *ChunkStorage) IndexOf(p geom.IVec) (ChunkID, geom.IVec, bool) {
	key, local := p.FloorDiv(s.chunkSize)
	c, ok := s.Chunks[key]
	if !ok {
		return 0, geom.IVec{}, false
	}
	return c.ID, local, true
}

func (s *ChunkStorage) ForEach(fn func(p geom.IVec, v Voxel) bool) {
	n := s.chunkSize
	for key, c := range s.Chunks {
		base := key.Scale(n)
		for i, v := range c.Payload {
			if v == s.ambient {
				continue
			}
			local := geom.IVec{i % n, (i / n) % n, i / (n * n)}
			if !fn(base.Add(local), v) {
				return
			}
		}
	}
}

// Len returns the number of non-ambient voxels.
func (s *ChunkStorage) Len() int {
	total := 0
	for _, c := range s.Chunks {
		total += c.filled
	}
	return total
}

func (s *ChunkStorage) Bounds() (geom.IVec, geom.IVec, bool) {
	if !s.boundsDirty {
		return s.cachedLo, s.cachedHi, s.cachedOk
	}
	var lo, hi geom.IVec
	ok := false
	s.ForEach(func(p geom.IVec, _ Voxel) bool {
		if !ok {
			lo, hi, ok = p, p, true
			return true
		}
		lo, hi = lo.Min(p), hi.Max(p)
		return true
	})
	s.cachedLo, s.cachedHi, s.cachedOk = lo, hi, ok
	s.boundsDirty = false
	return lo, hi, ok
}

// Copy returns a deep copy with its own chunk id counter.
func (s *ChunkStorage) Copy() *ChunkStorage {
	out := NewChunkStorage(s.ambient, s.chunkSize)
	out.nextID = s.nextID
	for key, c := range s.Chunks {
		cc := *c
		cc.Payload = append([]Voxel(nil), c.Payload...)
		out.Chunks[key] = &cc
	}
	return out
}
