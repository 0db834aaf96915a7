package repository

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"PokerAssist/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnknownOpponent(t *testing.T) {
	s := NewMemoryProfileStore(8)

	p := s.Get("never-seen")
	assert.Equal(t, models.OpponentProfile{}, p)
	assert.Equal(t, models.LabelUnknown, models.Classify(p))
	assert.Equal(t, 0, s.Len(), "lookup must not create state")
}

func TestUpdateIncrementsSelectedCounters(t *testing.T) {
	s := NewMemoryProfileStore(8)

	s.Update("villain", true, true, false)
	s.Update("villain", true, false, false)
	s.Update("villain", true, true, true)

	assert.Equal(t, models.OpponentProfile{HandsPlayed: 3, VoluntarilyEntered: 2, PreflopRaises: 1}, s.Get("villain"))
	assert.Equal(t, 1, s.Len())
}

func TestShardCountRoundsUp(t *testing.T) {
	s := NewMemoryProfileStore(5)
	assert.Len(t, s.shards, 8)
	assert.Len(t, NewMemoryProfileStore(0).shards, defaultProfileShards)
}

func TestConcurrentUpdatesSameOpponentLoseNothing(t *testing.T) {
	for round := 0; round < 5; round++ {
		s := NewMemoryProfileStore(4)
		rng := rand.New(rand.NewSource(int64(round)))

		const workers = 16
		plans := make([][]models.Observation, workers)
		var want models.OpponentProfile
		for w := range plans {
			n := 200 + rng.Intn(300)
			for i := 0; i < n; i++ {
				o := models.Observation{
					PlayedHand:         rng.Intn(2) == 0,
					VoluntarilyEntered: rng.Intn(2) == 0,
					PreflopRaise:       rng.Intn(3) == 0,
				}
				plans[w] = append(plans[w], o)
				if o.PlayedHand {
					want.HandsPlayed++
				}
				if o.VoluntarilyEntered {
					want.VoluntarilyEntered++
				}
				if o.PreflopRaise {
					want.PreflopRaises++
				}
			}
		}

		var wg sync.WaitGroup
		start := make(chan struct{})
		for _, plan := range plans {
			wg.Add(1)
			go func(plan []models.Observation) {
				defer wg.Done()
				<-start
				for _, o := range plan {
					s.Update("hero-nemesis", o.PlayedHand, o.VoluntarilyEntered, o.PreflopRaise)
					_ = s.Get("hero-nemesis")
				}
			}(plan)
		}
		close(start)
		wg.Wait()

		require.Equal(t, want, s.Get("hero-nemesis"), "round %d", round)
	}
}

func TestConcurrentUpdatesAcrossOpponents(t *testing.T) {
	s := NewMemoryProfileStore(16)
	const opponents = 50
	const perOpponent = 100

	var wg sync.WaitGroup
	for i := 0; i < opponents; i++ {
		id := fmt.Sprintf("seat-%d", i)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < perOpponent; k++ {
					s.Update(id, true, k%2 == 0, false)
				}
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, opponents, s.Len())
	for i := 0; i < opponents; i++ {
		p := s.Get(fmt.Sprintf("seat-%d", i))
		assert.Equal(t, int64(2*perOpponent), p.HandsPlayed)
		assert.Equal(t, int64(perOpponent), p.VoluntarilyEntered)
		assert.Zero(t, p.PreflopRaises)
	}
}
