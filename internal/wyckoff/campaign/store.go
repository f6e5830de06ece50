package campaign

import "sync"

// Store is the indexed campaign store: a primary map plus secondary
// indexes maintained in lockstep (spec.md 4.E, 9). Mutations go through
// Add/UpdateState/Remove so campaigns_by_id and campaigns_by_state never
// drift; RebuildIndexes recovers from any divergence. GetActive iterates
// in insertion order regardless of the state index's internal ordering.
type Store struct {
	mu           sync.Mutex
	byID         map[string]*Campaign
	byState      map[State]map[string]struct{}
	insertionOrder []string
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*Campaign),
		byState: make(map[State]map[string]struct{}),
	}
}

func (s *Store) indexState(id string, state State) {
	if s.byState[state] == nil {
		s.byState[state] = make(map[string]struct{})
	}
	s.byState[state][id] = struct{}{}
}

func (s *Store) unindexState(id string, state State) {
	if set, ok := s.byState[state]; ok {
		delete(set, id)
	}
}

// Add inserts a new campaign into all three indexes.
func (s *Store) Add(c *Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return
	}
	s.byID[c.ID] = c
	s.indexState(c.ID, c.State)
	s.insertionOrder = append(s.insertionOrder, c.ID)
}

// UpdateState transitions a campaign's state, keeping byState in
// lockstep with byID. No-op if the id is unknown.
func (s *Store) UpdateState(id string, newState State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return
	}
	s.unindexState(id, c.State)
	c.State = newState
	s.indexState(id, newState)
}

// Get returns the campaign by id, or nil.
func (s *Store) Get(id string) *Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

// Remove deletes a campaign from all indexes.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return
	}
	s.unindexState(id, c.State)
	delete(s.byID, id)
	for i, existing := range s.insertionOrder {
		if existing == id {
			s.insertionOrder = append(s.insertionOrder[:i], s.insertionOrder[i+1:]...)
			break
		}
	}
}

// GetActive iterates campaigns currently in ACTIVE state, in insertion
// order, filtered through the state index (spec.md 5: "get_active_campaigns
// iterates campaigns in insertion order regardless of state index
// implementation").
func (s *Store) GetActive() []*Campaign {
	return s.ByState(Active)
}

// ByState returns campaigns in the given state, insertion-ordered.
func (s *Store) ByState(state State) []*Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.byState[state]
	if len(set) == 0 {
		return nil
	}
	var out []*Campaign
	for _, id := range s.insertionOrder {
		if _, ok := set[id]; ok {
			out = append(out, s.byID[id])
		}
	}
	return out
}

// All returns every campaign, insertion-ordered.
func (s *Store) All() []*Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Campaign, 0, len(s.insertionOrder))
	for _, id := range s.insertionOrder {
		out = append(out, s.byID[id])
	}
	return out
}

// RebuildIndexes recovers byState and insertionOrder from byID alone,
// for recovery after any detected divergence between the indexes.
func (s *Store) RebuildIndexes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byState = make(map[State]map[string]struct{})
	newOrder := make([]string, 0, len(s.insertionOrder))
	seen := make(map[string]struct{})
	for _, id := range s.insertionOrder {
		if _, ok := s.byID[id]; ok {
			if _, dup := seen[id]; !dup {
				newOrder = append(newOrder, id)
				seen[id] = struct{}{}
			}
		}
	}
	for id := range s.byID {
		if _, ok := seen[id]; !ok {
			newOrder = append(newOrder, id)
			seen[id] = struct{}{}
		}
	}
	s.insertionOrder = newOrder
	for _, id := range s.insertionOrder {
		s.indexState(id, s.byID[id].State)
	}
}

// Invariant reports whether byID and byState are in bijection, for
// tests exercising spec.md 8's indexed-store invariant.
func (s *Store) Invariant() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, set := range s.byState {
		total += len(set)
	}
	if total != len(s.byID) {
		return false
	}
	for id, c := range s.byID {
		set, ok := s.byState[c.State]
		if !ok {
			return false
		}
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
