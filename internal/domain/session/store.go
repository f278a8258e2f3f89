// Package session owns the open invoice drafts (POS tabs), the active-tab
// pointer, and their persistence across restarts.
package session

import (
	"context"
	"sync"

	"posdesk/internal/core/apperror"
	"posdesk/internal/domain/draft"
	"posdesk/pkg/logger"
)

// Store holds an ordered list of drafts and the active draft id.
//
// Invariants: at least one draft exists, and activeID names one of them.
// Every state change is persisted; persistence failures are logged, never returned.
type Store struct {
	factory   *draft.Factory
	persister Persister
	codec     *Codec
	log       *logger.Logger

	mu       sync.RWMutex
	drafts   []draft.Draft
	activeID string
	seq      uint64

	saveMu    sync.Mutex
	savedSeq  uint64
	listeners []func(Snapshot)
}

// NewStore creates a store holding a single fresh draft. Call Load to resume
// the persisted session.
func NewStore(factory *draft.Factory, persister Persister, codec *Codec, log *logger.Logger) *Store {
	if persister == nil {
		persister = &MemoryPersister{}
	}
	if log == nil {
		log = logger.Default()
	}
	first := factory.CreateFresh()
	return &Store{
		factory:   factory,
		persister: persister,
		codec:     codec,
		log:       log.WithComponent("session"),
		drafts:    []draft.Draft{first},
		activeID:  first.ID,
	}
}

// OnChange registers fn to receive every persisted snapshot.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load restores the persisted session. Unreadable or corrupt data is discarded
// and the store starts from a single fresh draft; Load never fails.
func (s *Store) Load(ctx context.Context) {
	drafts, activeID := s.readPersisted(ctx)

	s.mu.Lock()
	if len(drafts) == 0 {
		fresh := s.factory.CreateFresh()
		drafts, activeID = []draft.Draft{fresh}, fresh.ID
	}
	if indexOf(drafts, activeID) < 0 {
		activeID = drafts[0].ID
	}
	s.drafts, s.activeID = drafts, activeID
	s.mu.Unlock()

	s.log.WithContext(ctx).Infow("session restored", "drafts", len(drafts), "active_id", activeID)
	s.persist(ctx)
}

func (s *Store) readPersisted(ctx context.Context) ([]draft.Draft, string) {
	log := s.log.WithContext(ctx)
	data, err := s.persister.Load(ctx)
	if err != nil {
		log.Warnw("failed to read persisted session", "error", err)
		return nil, ""
	}
	if len(data) == 0 {
		return nil, ""
	}
	raw, err := s.codec.decode(data)
	if err != nil {
		log.Warnw("discarding corrupt persisted session", "error", err, "bytes", len(data))
		return nil, ""
	}

	drafts := make([]draft.Draft, 0, len(raw.Drafts))
	seen := make(map[string]bool, len(raw.Drafts))
	for i, r := range raw.Drafts {
		d, err := s.factory.FromPersisted(r)
		if err == nil {
			err = d.Validate()
		}
		if err != nil {
			log.Warnw("skipping unreadable persisted draft", "index", i, "error", err)
			continue
		}
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		drafts = append(drafts, d)
	}
	return drafts, raw.ActiveID
}

// --- Reads ---

// Drafts returns copies of all drafts in tab order.
func (s *Store) Drafts() []draft.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]draft.Draft, len(s.drafts))
	for i, d := range s.drafts {
		out[i] = d.Clone()
	}
	return out
}

// ActiveID returns the id of the active draft.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns a copy of the active draft.
func (s *Store) Active() draft.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[indexOf(s.drafts, s.activeID)].Clone()
}

// Get returns a copy of the draft with the given id.
func (s *Store) Get(draftID string) (draft.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.drafts, draftID)
	if i < 0 {
		return draft.Draft{}, false
	}
	return s.drafts[i].Clone(), true
}

// Len returns the number of open drafts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// --- Transitions ---

// AddTab appends a fresh draft and activates it.
func (s *Store) AddTab(ctx context.Context, opts ...draft.FreshOption) draft.Draft {
	d := s.factory.CreateFresh(opts...)
	s.mu.Lock()
	s.drafts = append(s.drafts, d)
	s.activeID = d.ID
	s.seq++
	s.mu.Unlock()

	s.log.WithContext(ctx).Debugw("tab added", "draft_id", d.ID)
	s.persist(ctx)
	return d.Clone()
}

// CloseTab removes a draft. Closing the last remaining draft is refused and
// reported as closed=false. When the active draft closes, its left neighbor
// (or the new first draft) becomes active.
func (s *Store) CloseTab(ctx context.Context, draftID string) (bool, error) {
	s.mu.Lock()
	i := indexOf(s.drafts, draftID)
	if i < 0 {
		s.mu.Unlock()
		return false, apperror.NewNotFound("draft", draftID)
	}
	if len(s.drafts) == 1 {
		s.mu.Unlock()
		return false, nil
	}
	s.removeLocked(i)
	s.seq++
	s.mu.Unlock()

	s.log.WithContext(ctx).Debugw("tab closed", "draft_id", draftID)
	s.persist(ctx)
	return true, nil
}

// SetActive switches the active draft.
func (s *Store) SetActive(ctx context.Context, draftID string) error {
	s.mu.Lock()
	if indexOf(s.drafts, draftID) < 0 {
		s.mu.Unlock()
		return apperror.NewNotFound("draft", draftID)
	}
	changed := s.activeID != draftID
	s.activeID = draftID
	if changed {
		s.seq++
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
	}
	return nil
}

// MutateActive shallow-merges p into the active draft. A patch that would break
// a draft invariant is rejected and the draft is left unchanged.
func (s *Store) MutateActive(ctx context.Context, p draft.Patch) (draft.Draft, error) {
	return s.UpdateActive(ctx, func(draft.Draft) (draft.Patch, error) { return p, nil })
}

// UpdateActive computes a patch from the current active draft and applies it
// atomically: no other transition can interleave between the read and the write.
func (s *Store) UpdateActive(ctx context.Context, fn func(draft.Draft) (draft.Patch, error)) (draft.Draft, error) {
	s.mu.Lock()
	i := indexOf(s.drafts, s.activeID)
	cur := s.drafts[i]
	p, err := fn(cur.Clone())
	if err != nil {
		s.mu.Unlock()
		return cur.Clone(), err
	}
	next, err := draft.Apply(cur, p)
	if err != nil {
		s.mu.Unlock()
		return cur.Clone(), err
	}
	s.drafts[i] = next
	s.seq++
	s.mu.Unlock()

	s.persist(ctx)
	return next.Clone(), nil
}

// ReplaceActive puts next in the active draft's slot and activates it.
func (s *Store) ReplaceActive(ctx context.Context, next draft.Draft) error {
	return s.Replace(ctx, s.ActiveID(), next)
}

// Replace puts next in the slot of draftID. If draftID was active, next becomes active.
func (s *Store) Replace(ctx context.Context, draftID string, next draft.Draft) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	i := indexOf(s.drafts, draftID)
	if i < 0 {
		s.mu.Unlock()
		return apperror.NewNotFound("draft", draftID)
	}
	if j := indexOf(s.drafts, next.ID); j >= 0 && j != i {
		s.mu.Unlock()
		return apperror.NewConflict("a draft with this id is already open").WithDetail("draft_id", next.ID)
	}
	s.drafts[i] = next.Clone()
	if s.activeID == draftID {
		s.activeID = next.ID
	}
	s.seq++
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// AddOrActivate activates the first draft for which match returns true, or, when
// none matches, appends candidate and activates it. created reports which happened.
func (s *Store) AddOrActivate(ctx context.Context, candidate draft.Draft, match func(draft.Draft) bool) (draft.Draft, bool, error) {
	if err := candidate.Validate(); err != nil {
		return draft.Draft{}, false, err
	}
	s.mu.Lock()
	for _, d := range s.drafts {
		if match(d) {
			s.activeID = d.ID
			s.seq++
			s.mu.Unlock()
			s.persist(ctx)
			return d.Clone(), false, nil
		}
	}
	s.drafts = append(s.drafts, candidate.Clone())
	s.activeID = candidate.ID
	s.seq++
	s.mu.Unlock()

	s.persist(ctx)
	return candidate.Clone(), true, nil
}

// CloseEditTabAndOpenFresh removes an edit draft after it was committed and
// activates the first non-edit draft, creating a fresh one if none exists.
func (s *Store) CloseEditTabAndOpenFresh(ctx context.Context, draftID string) draft.Draft {
	s.mu.Lock()
	if i := indexOf(s.drafts, draftID); i >= 0 {
		s.drafts = append(s.drafts[:i:i], s.drafts[i+1:]...)
	}
	var target *draft.Draft
	for i := range s.drafts {
		if !s.drafts[i].IsEditMode() {
			target = &s.drafts[i]
			break
		}
	}
	if target == nil {
		fresh := s.factory.CreateFresh()
		s.drafts = append(s.drafts, fresh)
		target = &s.drafts[len(s.drafts)-1]
	}
	s.activeID = target.ID
	out := target.Clone()
	s.seq++
	s.mu.Unlock()

	s.log.WithContext(ctx).Debugw("edit tab closed", "draft_id", draftID, "active_id", out.ID)
	s.persist(ctx)
	return out
}

// --- internals ---

func (s *Store) removeLocked(i int) {
	removed := s.drafts[i].ID
	s.drafts = append(s.drafts[:i:i], s.drafts[i+1:]...)
	if s.activeID == removed {
		if i > 0 {
			i--
		}
		s.activeID = s.drafts[i].ID
	}
}

func (s *Store) snapshotLocked() Snapshot {
	drafts := make([]draft.Draft, len(s.drafts))
	for i, d := range s.drafts {
		drafts[i] = d.Clone()
	}
	return Snapshot{Drafts: drafts, ActiveID: s.activeID}
}

// persist writes the current state. Writes are serialized and a snapshot older
// than the last written one is dropped.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	snap := s.snapshotLocked()
	seq := s.seq
	s.mu.RUnlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq < s.savedSeq {
		return
	}
	s.savedSeq = seq

	for _, fn := range s.listeners {
		fn(snap)
	}

	data, err := s.codec.Encode(snap)
	if err != nil {
		s.log.WithContext(ctx).Errorw("failed to encode session", "error", err)
		return
	}
	if err := s.persister.Save(context.WithoutCancel(ctx), data); err != nil {
		s.log.WithContext(ctx).Warnw("failed to persist session", "error", err)
	}
}

func indexOf(drafts []draft.Draft, draftID string) int {
	for i, d := range drafts {
		if d.ID == draftID {
			return i
		}
	}
	return -1
}
