package voxphys

import (
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/gekko3d/voxphys/collision"
	"github.com/gekko3d/voxphys/geom"
	"github.com/gekko3d/voxphys/octree"
	"github.com/gekko3d/voxphys/physics"
	"github.com/gekko3d/voxphys/volume"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEmptyBody is returned when a body would be left without mass.
	ErrEmptyBody = errors.New("body has no mass")
)

// Entity is one voxel body. The world owns its storage, octree and rigid body;
// callers must not mutate them while a Step runs.
type Entity struct {
	ID      uuid.UUID
	Storage *volume.ChunkStorage
	Tree    *octree.Set
	Body    *physics.Body

	dirty bool
	power int
}

// Dirty reports whether the octree is stale and will be rebuilt next step.
func (e *Entity) Dirty() bool {
	return e.dirty
}

// Contact is the set of touching voxels between two entities in one step.
type Contact struct {
	A, B   uuid.UUID
	Voxels collision.List
}

type StepReport struct {
	Tick     uint64
	Contacts []Contact
	Rebuilt  int
}

type World struct {
	cfg      Config
	logger   Logger
	pool     pond.Pool
	ownsPool bool
	resolver collision.Resolver
	schedule *schedule

	entities  []*Entity
	index     map[uuid.UUID]int
	treePower int
	tick      uint64
	report    StepReport
}

type Option func(w *World)

func WithLogger(l Logger) Option {
	return func(w *World) { w.logger = l }
}

// WithPool runs world tasks on an existing pool. The world does not stop it.
func WithPool(p pond.Pool) Option {
	return func(w *World) { w.pool = p }
}

func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:       cfg,
		resolver:  collision.Resolver{LeafShrink: cfg.LeafShrink},
		schedule:  newSchedule(),
		index:     make(map[uuid.UUID]int),
		treePower: cfg.MinTreePower,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = NewDefaultLogger(cfg.LogPrefix, cfg.Debug)
	}
	if w.pool == nil {
		w.pool = pond.NewPool(cfg.Workers)
		w.ownsPool = true
	}
	return w, nil
}

// Close stops the worker pool if the world created it.
func (w *World) Close() {
	if w.ownsPool {
		w.pool.StopAndWait()
	}
}

func (w *World) Config() Config {
	return w.cfg
}

func (w *World) Tick() uint64 {
	return w.tick
}

// TreePower is the shared octree power all entities are built at.
func (w *World) TreePower() int {
	return w.treePower
}

func (w *World) Len() int {
	return len(w.entities)
}

// IDs lists the live entities in spawn order.
func (w *World) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(w.entities))
	for i, e := range w.entities {
		ids[i] = e.ID
	}
	return ids
}

// NewStorage returns empty storage with the world's chunk size.
func (w *World) NewStorage() *volume.ChunkStorage {
	return volume.NewChunkStorage(volume.Vacuum, w.cfg.ChunkSize)
}

// Spawn adds a body made of the voxels in storage. position is where its
// center of mass is placed; the world takes ownership of storage.
func (w *World) Spawn(storage *volume.ChunkStorage, position mgl32.Vec3, rotation geom.Rotor, velocity mgl32.Vec3) (uuid.UUID, error) {
	var total int64
	for _, m := range volume.Masses(storage) {
		total += m
	}
	if total <= 0 {
		return uuid.Nil, fmt.Errorf("spawn: %w", ErrEmptyBody)
	}

	e := &Entity{
		ID:      uuid.New(),
		Storage: storage,
		Body:    physics.New(position, rotation, velocity, volume.Masses(storage)),
		dirty:   true,
	}
	w.index[e.ID] = len(w.entities)
	w.entities = append(w.entities, e)
	w.logger.Debugf("spawned %s with mass %d", e.ID, e.Body.TotalMass)
	return e.ID, nil
}

func (w *World) Despawn(id uuid.UUID) error {
	i, ok := w.index[id]
	if !ok {
		return fmt.Errorf("despawn %s: %w", id, ErrEntityNotFound)
	}
	w.entities = append(w.entities[:i], w.entities[i+1:]...)
	delete(w.index, id)
	for j := i; j < len(w.entities); j++ {
		w.index[w.entities[j].ID] = j
	}
	w.logger.Debugf("despawned %s", id)
	return nil
}

func (w *World) Entity(id uuid.UUID) (*Entity, error) {
	i, ok := w.index[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, ErrEntityNotFound)
	}
	return w.entities[i], nil
}

// SetVoxel writes one voxel of an entity and queues the mass change. The
// octree is rebuilt on the next step if collidability changed.
func (w *World) SetVoxel(id uuid.UUID, p geom.IVec, v volume.Voxel) error {
	e, err := w.Entity(id)
	if err != nil {
		return err
	}
	old := e.Storage.Get(p)
	delta := v.Mass() - old.Mass()
	if e.Body.PendingMass()+delta <= 0 {
		return fmt.Errorf("set voxel %v of %s: %w", p, id, ErrEmptyBody)
	}
	volume.Set(e.Storage, p, v)
	e.Body.AddMass(p, delta)
	if old.Collidable() != v.Collidable() {
		e.dirty = true
	}
	return nil
}

// ApplyForce accumulates a force at a world point for the next step.
func (w *World) ApplyForce(id uuid.UUID, force, point mgl32.Vec3) error {
	e, err := w.Entity(id)
	if err != nil {
		return err
	}
	e.Body.ApplyForce(force, point)
	return nil
}

func (w *World) ApplyImpulse(id uuid.UUID, impulse, point mgl32.Vec3) error {
	e, err := w.Entity(id)
	if err != nil {
		return err
	}
	e.Body.ApplyImpulse(impulse, point)
	return nil
}

// Transform is the renderable placement of an entity: the world location of
// its lattice origin and its rotation.
func (w *World) Transform(id uuid.UUID) (mgl32.Vec3, geom.Rotor, error) {
	e, err := w.Entity(id)
	if err != nil {
		return mgl32.Vec3{}, geom.Rotor{}, err
	}
	return e.Body.Origin(), e.Body.Rotation, nil
}

// Step advances the world by one timestep, running every stage in order.
func (w *World) Step() StepReport {
	w.tick++
	w.report = StepReport{Tick: w.tick}
	w.schedule.run(w)
	w.logger.Debugf("tick %d: %d entities, %d rebuilt, %d contacts",
		w.tick, len(w.entities), w.report.Rebuilt, len(w.report.Contacts))
	return w.report
}
