package rummy

import (
	"testing"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	// When: a new shoe is built
	deck := NewDeck()

	// Then: it holds two full decks and two jokers
	require.Len(t, deck, DeckSize)

	counts := make(map[entity.Card]int)
	for _, card := range deck {
		counts[card]++
	}

	assert.Equal(t, 1, counts[entity.JokerOne])
	assert.Equal(t, 1, counts[entity.JokerTwo])
	assert.Equal(t, 2, counts[entity.NewCard(entity.Hearts, entity.RankAce)])
	assert.Equal(t, 2, counts[entity.NewCard(entity.Clubs, 2)])
	assert.Len(t, counts, 52+2)
}

func TestDealer_Deal(t *testing.T) {
	for _, players := range []int{2, 3, 6} {
		// Given: a seeded dealer
		dealer := NewDealer(uint64(players))

		// When: a round is dealt
		deal, err := dealer.Deal(players, 13)
		require.NoError(t, err)

		// Then: 13N+1 cards left the shoe before the wildcard was picked
		require.Len(t, deal.Hands, players)
		for _, hand := range deal.Hands {
			assert.Len(t, hand, 13)
		}
		assert.NotEmpty(t, deal.OpenCard)
		assert.Len(t, deal.ClosedDeck, DeckSize-13*players-1)

		// And: the wildcard is never a joker and sits at the bottom of the closed deck
		assert.False(t, deal.WildCard.IsJoker())
		assert.Equal(t, deal.WildCard, deal.ClosedDeck[0])

		// And: no card was lost or duplicated
		all := entity.Cards{deal.OpenCard}
		for _, hand := range deal.Hands {
			all = append(all, hand...)
		}
		all = append(all, deal.ClosedDeck...)
		assert.True(t, all.SameMultiset(NewDeck()))
	}
}

func TestDealer_Deal_TooManyPlayers(t *testing.T) {
	// Given: more seats than the shoe can serve
	dealer := NewDealer(1)

	// When: dealing 13 cards to 9 players
	_, err := dealer.Deal(9, 13)

	// Then: dealing fails
	require.ErrorIs(t, err, ErrNotEnoughCards)
}

func TestDealer_Reshuffle(t *testing.T) {
	t.Run("keeps the open top card and moves the rest", func(t *testing.T) {
		// Given: an open deck of four cards
		dealer := NewDealer(7)
		open := entity.Cards{"H-2", "S-9", "D-12", "C-5"}

		// When: the open deck is reshuffled
		closed, rest := dealer.Reshuffle(open)

		// Then: only the top card stays open
		assert.Equal(t, entity.Cards{"C-5"}, rest)
		assert.True(t, closed.SameMultiset(entity.Cards{"H-2", "S-9", "D-12"}))
	})

	t.Run("does nothing with a single open card", func(t *testing.T) {
		dealer := NewDealer(7)

		closed, rest := dealer.Reshuffle(entity.Cards{"C-5"})

		assert.Empty(t, closed)
		assert.Equal(t, entity.Cards{"C-5"}, rest)
	})
}
