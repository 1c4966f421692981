package machine

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TaskMap associates worker handles with the Info of the not-yet-completed
// machine they are running. Keying on a runtime-local WorkerHandle, rather
// than something borrowed from the machine's own identity, keeps at most
// one live registration per key true without relying on serialization
// alone.
type TaskMap struct {
	byHandle map[WorkerHandle]*Info
	// ordered holds every machine ever created, in creation order, the
	// base from which Runnable builds (and sorts by Id) the candidate
	// list presented to a Strategy.
	ordered []*Info
}

func NewTaskMap() *TaskMap {
	return &TaskMap{
		byHandle: make(map[WorkerHandle]*Info),
		ordered:  make([]*Info, 0),
	}
}

// Register adds a newly created machine to the map and to the ordered
// table.
func (tm *TaskMap) Register(info *Info) {
	tm.byHandle[info.Handle] = info
	tm.ordered = append(tm.ordered, info)
}

// Lookup returns the Info registered for handle, or nil if none.
func (tm *TaskMap) Lookup(handle WorkerHandle) *Info {
	return tm.byHandle[handle]
}

// Remove deletes handle from the live task map. Called once a machine's
// worker has completed; the Info itself stays reachable via Ordered.
func (tm *TaskMap) Remove(handle WorkerHandle) {
	delete(tm.byHandle, handle)
}

// Rekey moves the registration for a machine from oldHandle to newHandle,
// used by NotifyScheduledMachineTaskChanged when a machine's execution
// crosses an asynchronous boundary onto a new worker.
func (tm *TaskMap) Rekey(oldHandle, newHandle WorkerHandle, info *Info) {
	delete(tm.byHandle, oldHandle)
	info.Handle = newHandle
	tm.byHandle[newHandle] = info
}

// Ordered returns every machine created so far, in creation (dense id)
// order. The slice must not be mutated by callers.
func (tm *TaskMap) Ordered() []*Info {
	return tm.ordered
}

// Runnable returns the subset of Ordered() that is currently a candidate
// for scheduling, sorted by Id.Value.
func (tm *TaskMap) Runnable() []*Info {
	out := make([]*Info, 0, len(tm.ordered))
	for _, info := range tm.ordered {
		if info.Runnable() {
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b *Info) int {
		switch {
		case a.Id.Value < b.Id.Value:
			return -1
		case a.Id.Value > b.Id.Value:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Len returns the number of machines still registered in the live task
// map, i.e. not yet completed.
func (tm *TaskMap) Len() int {
	return len(tm.byHandle)
}

// Snapshot returns a shallow copy of the live handle-to-Info table,
// safe for a caller to inspect without racing a concurrent Register or
// Remove.
func (tm *TaskMap) Snapshot() map[WorkerHandle]*Info {
	return maps.Clone(tm.byHandle)
}
