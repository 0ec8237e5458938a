package voxphys

import (
	"fmt"
	"slices"
)

// Stage is one ordered phase of a world step.
type Stage struct {
	Name string
}

var (
	// Rebuild recompresses the octrees of entities whose voxels changed.
	Rebuild = Stage{Name: "Rebuild"}
	// PrePhysics folds voxel mass changes into the rigid bodies.
	PrePhysics = Stage{Name: "PrePhysics"}
	// Collide resolves voxel contacts and applies penalty forces.
	Collide = Stage{Name: "Collide"}
	// Physics integrates every body by one timestep.
	Physics = Stage{Name: "Physics"}
)

type systemFn func(w *World)

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

// System wraps fn for UseSystem. It runs in PrePhysics unless moved with
// InStage.
func System(fn func(w *World)) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  fn,
		inStage: PrePhysics,
	}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

type schedule struct {
	stages  []Stage
	systems map[string][]systemFn
}

func newSchedule() *schedule {
	sc := &schedule{systems: make(map[string][]systemFn)}
	for _, s := range []Stage{Rebuild, PrePhysics, Collide, Physics} {
		sc.stages = append(sc.stages, s)
		sc.systems[s.Name] = nil
	}
	sc.systems[Rebuild.Name] = append(sc.systems[Rebuild.Name], rebuildSystem)
	sc.systems[PrePhysics.Name] = append(sc.systems[PrePhysics.Name], recomputeSystem)
	sc.systems[Collide.Name] = append(sc.systems[Collide.Name], collideSystem)
	sc.systems[Physics.Name] = append(sc.systems[Physics.Name], integrateSystem)
	return sc
}

// UseStage inserts a custom stage relative to an existing one.
func (w *World) UseStage(stage Stage, where stagePositionBuilder) *World {
	sc := w.schedule
	if _, ok := sc.systems[stage.Name]; ok {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}
	var stageIdx int = -1
	for i, s := range sc.stages {
		if s.Name == where.target.Name {
			stageIdx = i
			break
		}
	}
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	var insertAt int
	if stageBefore == where.position {
		insertAt = stageIdx
	} else {
		insertAt = stageIdx + 1
	}

	sc.stages = slices.Insert(sc.stages, insertAt, stage)
	sc.systems[stage.Name] = nil
	return w
}

// UseSystem appends a system to its stage. Systems of a stage run in the
// order they were added, after the built-in one.
func (w *World) UseSystem(system systemScheduleBuilder) *World {
	sc := w.schedule
	if _, ok := sc.systems[system.inStage.Name]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}
	sc.systems[system.inStage.Name] = append(sc.systems[system.inStage.Name], system.system)
	return w
}

// Stages lists the stage names in execution order.
func (w *World) Stages() []string {
	names := make([]string, len(w.schedule.stages))
	for i, s := range w.schedule.stages {
		names[i] = s.Name
	}
	return names
}

func (sc *schedule) run(w *World) {
	for _, s := range sc.stages {
		for _, fn := range sc.systems[s.Name] {
			fn(w)
		}
	}
}
