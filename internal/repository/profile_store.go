package repository

import (
	"hash/fnv"
	"sync"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
)

const defaultProfileShards = 64

type profileEntry struct {
	mu sync.Mutex
	p  models.OpponentProfile
}

type profileShard struct {
	mu      sync.RWMutex
	entries map[string]*profileEntry
}

// MemoryProfileStore is a sharded in-memory ProfileStore.
// Shard locks only guard membership; counters are protected by a lock per opponent,
// so updates for different opponents never wait on each other's read-modify-write.
type MemoryProfileStore struct {
	shards []*profileShard
	mask   uint32
}

// NewMemoryProfileStore creates a store with the given shard count rounded up to a power of two.
func NewMemoryProfileStore(shards int) *MemoryProfileStore {
	if shards <= 0 {
		shards = defaultProfileShards
	}
	n := 1
	for n < shards {
		n <<= 1
	}
	s := &MemoryProfileStore{
		shards: make([]*profileShard, n),
		mask:   uint32(n - 1),
	}
	for i := range s.shards {
		s.shards[i] = &profileShard{entries: make(map[string]*profileEntry)}
	}
	return s
}

func (s *MemoryProfileStore) shard(id string) *profileShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()&s.mask]
}

// entry returns the entry for id, creating it when create is set.
func (s *MemoryProfileStore) entry(id string, create bool) *profileEntry {
	sh := s.shard(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if ok || !create {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[id]; ok {
		return e
	}
	e = &profileEntry{}
	sh.entries[id] = e
	return e
}

// Update applies one observation as a single read-modify-write.
func (s *MemoryProfileStore) Update(opponentID string, playedHand, voluntarilyEntered, preflopRaise bool) {
	e := s.entry(opponentID, true)
	e.mu.Lock()
	if playedHand {
		e.p.HandsPlayed++
	}
	if voluntarilyEntered {
		e.p.VoluntarilyEntered++
	}
	if preflopRaise {
		e.p.PreflopRaises++
	}
	e.mu.Unlock()
}

// Get returns a copy of the counters; unknown ids yield a zero profile and are not stored.
func (s *MemoryProfileStore) Get(opponentID string) models.OpponentProfile {
	e := s.entry(opponentID, false)
	if e == nil {
		return models.OpponentProfile{}
	}
	e.mu.Lock()
	p := e.p
	e.mu.Unlock()
	return p
}

func (s *MemoryProfileStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

var _ domrepo.ProfileStore = (*MemoryProfileStore)(nil)
