package collision

import (
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/gekko3d/voxphys/octree"
)

// PairKey identifies an unordered pair of entity indices. Lo < Hi always.
type PairKey struct {
	Lo, Hi int
}

func MakePairKey(i, j int) PairKey {
	if i == j {
		panic(fmt.Sprintf("pair key needs two distinct indices, got %d twice", i))
	}
	if i > j {
		i, j = j, i
	}
	return PairKey{Lo: i, Hi: j}
}

func (k PairKey) less(o PairKey) bool {
	if k.Lo != o.Lo {
		return k.Lo < o.Lo
	}
	return k.Hi < o.Hi
}

// AllPairs lists every pair of n indices in (Lo, Hi) order.
func AllPairs(n int) []PairKey {
	pairs := make([]PairKey, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairKey{Lo: i, Hi: j})
		}
	}
	return pairs
}

// SortedKeys returns the keys of a batch result in (Lo, Hi) order.
func SortedKeys(m map[PairKey]List) []PairKey {
	keys := make([]PairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortPairs(keys)
	return keys
}

// CollideAll tests every pair of items. Pairs without collisions have no
// entry in the result.
func (r Resolver) CollideAll(items []Positioned[octree.Tree]) map[PairKey]List {
	return r.CollidePairs(items, AllPairs(len(items)))
}

// CollidePairs tests the given pairs sequentially.
func (r Resolver) CollidePairs(items []Positioned[octree.Tree], pairs []PairKey) map[PairKey]List {
	out := make(map[PairKey]List)
	for _, k := range pairs {
		if l := r.Collide(items[k.Lo], items[k.Hi]); len(l) > 0 {
			out[k] = l
		}
	}
	return out
}

// CollidePairsParallel is CollidePairs with one pool task per pair. The trees
// are only read, so pairs sharing an entity may run concurrently.
func (r Resolver) CollidePairsParallel(pool pond.Pool, items []Positioned[octree.Tree], pairs []PairKey) map[PairKey]List {
	var mu sync.Mutex
	out := make(map[PairKey]List)

	group := pool.NewGroup()
	for _, k := range pairs {
		group.Submit(func() {
			l := r.Collide(items[k.Lo], items[k.Hi])
			if len(l) == 0 {
				return
			}
			mu.Lock()
			out[k] = l
			mu.Unlock()
		})
	}
	if err := group.Wait(); err != nil {
		panic(err)
	}
	return out
}

// CollideAllParallel is CollideAll on a worker pool.
func (r Resolver) CollideAllParallel(pool pond.Pool, items []Positioned[octree.Tree]) map[PairKey]List {
	return r.CollidePairsParallel(pool, items, AllPairs(len(items)))
}
