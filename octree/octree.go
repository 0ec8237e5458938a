package octree

import (
	"fmt"

	"github.com/gekko3d/voxphys/geom"
)

// Kind classifies the region covered by a node.
type Kind uint8

const (
	Empty Kind = iota
	Full
	Interior
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Full:
		return "Full"
	case Interior:
		return "Interior"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const noChild = -1

// node is the arena representation. Children of interior nodes are arena
// indices; noChild marks an empty octant.
type node struct {
	min      geom.IVec
	power    uint8
	kind     Kind
	children [8]int32
}

// Node is a cube of the lattice: Min is the minimum corner, Size the edge
// length (a power of two).
type Node struct {
	Min  geom.IVec
	Size int
	Kind Kind

	index int32 // arena slot, or noChild for virtual octants of full nodes
}

func (n Node) IsFull() bool {
	return n.Kind == Full
}

func (n Node) IsUnit() bool {
	return n.Size == 1
}

// Center is the local-space center of the cube.
func (n Node) Center() (x, y, z float32) {
	h := float32(n.Size) / 2
	return float32(n.Min[0]) + h, float32(n.Min[1]) + h, float32(n.Min[2]) + h
}

// Contains reports whether lattice position p lies inside the node's cube.
func (n Node) Contains(p geom.IVec) bool {
	for i := 0; i < 3; i++ {
		if p[i] < n.Min[i] || p[i] >= n.Min[i]+n.Size {
			return false
		}
	}
	return true
}

// octantOffset returns the corner offset of child i for a child edge length.
func octantOffset(i, half int) geom.IVec {
	return geom.IVec{(i & 1) * half, ((i >> 1) & 1) * half, ((i >> 2) & 1) * half}
}

// Tree is the read-only view the collision resolver descends.
type Tree interface {
	Root() (Node, bool)
	AppendChildren(dst []Node, n Node) []Node
	Power() int
}

// Set is a sparse octree bitset of collidable voxels, stored as a flat arena.
// It is immutable once built.
type Set struct {
	nodes  []node
	root   int32
	power  int
	origin geom.IVec
}

var _ Tree = (*Set)(nil)

// Power is log2 of the root edge length.
func (s *Set) Power() int {
	return s.power
}

func (s *Set) EdgeLength() int {
	return 1 << s.power
}

// Origin is the lattice minimum corner of the root cube.
func (s *Set) Origin() geom.IVec {
	return s.origin
}

// Len is the number of stored arena nodes.
func (s *Set) Len() int {
	return len(s.nodes)
}

func (s *Set) nodeAt(idx int32) Node {
	n := s.nodes[idx]
	return Node{Min: n.min, Size: 1 << n.power, Kind: n.kind, index: idx}
}

// Root returns the root node; ok is false when the set holds no collidable
// voxel at all.
func (s *Set) Root() (Node, bool) {
	if s == nil || s.root == noChild {
		return Node{}, false
	}
	return s.nodeAt(s.root), true
}

// AppendChildren appends the non-empty octants of n to dst. Full nodes larger
// than a unit split into eight full octants that are not stored in the arena.
func (s *Set) AppendChildren(dst []Node, n Node) []Node {
	switch n.Kind {
	case Interior:
		for _, c := range s.nodes[n.index].children {
			if c != noChild {
				dst = append(dst, s.nodeAt(c))
			}
		}
	case Full:
		if n.Size <= 1 {
			return dst
		}
		half := n.Size / 2
		for i := 0; i < 8; i++ {
			dst = append(dst, Node{
				Min:   n.Min.Add(octantOffset(i, half)),
				Size:  half,
				Kind:  Full,
				index: noChild,
			})
		}
	}
	return dst
}

func (s *Set) Children(n Node) []Node {
	return s.AppendChildren(make([]Node, 0, 8), n)
}

// Contains reports whether lattice position p is inside a full region.
func (s *Set) Contains(p geom.IVec) bool {
	n, ok := s.Root()
	if !ok || !n.Contains(p) {
		return false
	}
	for n.Kind == Interior {
		next := false
		for _, c := range s.nodes[n.index].children {
			if c == noChild {
				continue
			}
			child := s.nodeAt(c)
			if child.Contains(p) {
				n, next = child, true
				break
			}
		}
		if !next {
			return false
		}
	}
	return n.Kind == Full
}

// ForEachFull visits every stored full node (the leaves of the arena).
func (s *Set) ForEachFull(fn func(n Node)) {
	for i, n := range s.nodes {
		if n.kind == Full {
			fn(s.nodeAt(int32(i)))
		}
	}
}

// Volume is the number of unit voxels covered by full nodes.
func (s *Set) Volume() int {
	total := 0
	s.ForEachFull(func(n Node) {
		total += n.Size * n.Size * n.Size
	})
	return total
}
