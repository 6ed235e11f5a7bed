// Package cache holds the caller-owned, in-memory view of one group set.
//
// An Aggregate is created by whoever drives the engine and passed into every
// mutating operation. After a committed change the engine calls Refresh,
// which reloads the whole group set from its Source and replaces the view in
// one step. Subscribers receive exactly one SnapshotReplaced event per
// replacement; Batch folds any number of refreshes into one.
package cache

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/loadout/internal/logging"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Source loads the materialised content of a group set.
type Source interface {
	LoadSnapshot(ctx context.Context, groupSetID int64) (*types.Snapshot, error)
}

// EventType names what happened to the view.
type EventType string

// SnapshotReplaced is emitted after every wholesale reload.
const SnapshotReplaced EventType = "snapshot_replaced"

// Event is delivered to subscribers after the view changes.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	GroupSetID int64
	Revision   uint64
}

// Aggregate is the in-memory hierarchy of the active group set.
type Aggregate struct {
	src    Source
	logger *log.Logger

	mu         sync.RWMutex
	groupSetID int64
	snap       *types.Snapshot
	revision   uint64
	byGroup    map[int64]types.GroupMembership
	children   map[int64][]types.GroupMembership // keyed by parent id, 0 for the top level
	plugins    map[int64][]types.PluginMembership
	batchDepth int

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New returns an empty Aggregate bound to groupSetID. Call Refresh to load
// it. A nil logger discards output.
func New(src Source, groupSetID int64, logger *log.Logger) *Aggregate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregate{
		src:        src,
		logger:     logger.With("component", "cache"),
		groupSetID: groupSetID,
		subs:       make(map[int]func(Event)),
	}
}

// GroupSetID returns the active group set.
func (a *Aggregate) GroupSetID() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.groupSetID
}

// Revision counts the replacements since the Aggregate was created.
func (a *Aggregate) Revision() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.revision
}

// Refresh reloads the active group set. Inside Batch the reload is deferred
// until the outermost batch returns.
func (a *Aggregate) Refresh(ctx context.Context) error {
	a.mu.Lock()
	deferred := a.batchDepth > 0
	a.mu.Unlock()
	if deferred {
		return nil
	}
	return a.reload(ctx)
}

// Select makes groupSetID the active variant and reloads.
func (a *Aggregate) Select(ctx context.Context, groupSetID int64) error {
	a.mu.Lock()
	a.groupSetID = groupSetID
	a.mu.Unlock()
	return a.Refresh(ctx)
}

// Batch runs fn with refreshes deferred. When the outermost batch returns the
// view is reloaded once and one event is emitted, even if fn fails part way,
// so the view never lags behind what was committed.
func (a *Aggregate) Batch(ctx context.Context, fn func() error) error {
	a.mu.Lock()
	a.batchDepth++
	a.mu.Unlock()

	fnErr := fn()

	a.mu.Lock()
	a.batchDepth--
	outermost := a.batchDepth == 0
	a.mu.Unlock()

	if !outermost {
		return fnErr
	}
	return errors.Join(fnErr, a.reload(ctx))
}

func (a *Aggregate) reload(ctx context.Context) error {
	a.mu.RLock()
	setID := a.groupSetID
	a.mu.RUnlock()

	snap, err := a.src.LoadSnapshot(ctx, setID)
	if err != nil {
		return err
	}

	byGroup := make(map[int64]types.GroupMembership, len(snap.GroupMemberships))
	children := make(map[int64][]types.GroupMembership)
	for _, m := range snap.GroupMemberships {
		byGroup[m.GroupID] = m
		if types.IsRoot(m.GroupID) {
			continue
		}
		children[m.Parent()] = append(children[m.Parent()], m)
	}
	for _, list := range children {
		slices.SortFunc(list, func(x, y types.GroupMembership) int {
			return cmp.Or(cmp.Compare(x.Ordinal, y.Ordinal), cmp.Compare(x.GroupID, y.GroupID))
		})
	}
	plugins := make(map[int64][]types.PluginMembership)
	for _, m := range snap.PluginMemberships {
		plugins[m.GroupID] = append(plugins[m.GroupID], m)
	}
	for _, list := range plugins {
		slices.SortFunc(list, func(x, y types.PluginMembership) int {
			return cmp.Or(cmp.Compare(x.Ordinal, y.Ordinal), cmp.Compare(x.PluginID, y.PluginID))
		})
	}

	a.mu.Lock()
	a.snap = snap
	a.byGroup = byGroup
	a.children = children
	a.plugins = plugins
	a.revision++
	ev := Event{Type: SnapshotReplaced, GroupSetID: setID, Revision: a.revision}
	a.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	ev.ID = id
	a.logger.Debug("snapshot replaced", "group_set_id", setID, "revision", ev.Revision)
	a.emit(ev)
	return nil
}

// Subscribe registers fn for every event and returns a function that removes
// it. Handlers run synchronously on the goroutine that triggered the reload.
func (a *Aggregate) Subscribe(fn func(Event)) (unsubscribe func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
}

func (a *Aggregate) emit(ev Event) {
	a.subMu.Lock()
	ids := make([]int, 0, len(a.subs))
	for id := range a.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, a.subs[id])
	}
	a.subMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
