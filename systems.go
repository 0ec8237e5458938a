package voxphys

import (
	"github.com/gekko3d/voxphys/collision"
	"github.com/gekko3d/voxphys/octree"
)

// forEachBatch runs fn for every entity on the pool, BatchSize entities per
// task, and waits. A panic inside fn is raised again here.
func (w *World) forEachBatch(entities []*Entity, fn func(e *Entity)) {
	if len(entities) == 0 {
		return
	}
	group := w.pool.NewGroup()
	for start := 0; start < len(entities); start += w.cfg.BatchSize {
		batch := entities[start:min(start+w.cfg.BatchSize, len(entities))]
		group.Submit(func() {
			for _, e := range batch {
				fn(e)
			}
		})
	}
	if err := group.Wait(); err != nil {
		panic(err)
	}
}

func rebuildSystem(w *World) {
	var dirty []*Entity
	power := w.treePower
	for _, e := range w.entities {
		if e.dirty || e.Tree == nil {
			e.power = octree.NaturalPower(e.Storage)
			dirty = append(dirty, e)
		}
		power = max(power, e.power)
	}
	if power > w.treePower {
		w.logger.Infof("octree power grows %d -> %d, rebuilding all %d entities", w.treePower, power, len(w.entities))
		w.treePower = power
		dirty = w.entities
	}

	w.forEachBatch(dirty, func(e *Entity) {
		e.Tree = octree.BuildPower(e.Storage, w.treePower)
		e.dirty = false
	})
	w.report.Rebuilt = len(dirty)
}

func recomputeSystem(w *World) {
	w.forEachBatch(w.entities, func(e *Entity) {
		if e.Body.NeedsRecompute() {
			e.Body.Recompute()
		}
	})
}

// collideSystem finds voxel contacts and pushes each pair apart with a
// penalty force along the voxel-center normal. Forces are applied serially
// since a body can take part in many pairs.
func collideSystem(w *World) {
	items := make([]collision.Positioned[octree.Tree], len(w.entities))
	for i, e := range w.entities {
		items[i] = collision.Place[octree.Tree](e.Tree, e.Body.Origin(), e.Body.Rotation)
	}

	var pairs []collision.PairKey
	if w.cfg.BroadPhaseCellSize > 0 {
		pairs = collision.CandidatePairs(items, w.cfg.BroadPhaseCellSize)
	} else {
		pairs = collision.AllPairs(len(items))
	}
	found := w.resolver.CollidePairsParallel(w.pool, items, pairs)

	for _, k := range collision.SortedKeys(found) {
		a, b := w.entities[k.Lo], w.entities[k.Hi]
		voxels := found[k]
		for _, c := range voxels {
			f := c.Normal.Mul(c.Penetration * w.cfg.ContactStiffness)
			a.Body.ApplyForce(f, a.Body.WorldPoint(c.A.Center()))
			b.Body.ApplyForce(f.Mul(-1), b.Body.WorldPoint(c.B.Center()))
		}
		w.report.Contacts = append(w.report.Contacts, Contact{A: a.ID, B: b.ID, Voxels: voxels})
	}
}

func integrateSystem(w *World) {
	dt := w.cfg.Timestep
	w.forEachBatch(w.entities, func(e *Entity) {
		e.Body.Integrate(dt)
	})
}
