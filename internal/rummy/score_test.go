package rummy

import (
	"testing"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

const maxScore = 80

func TestScore(t *testing.T) {
	t.Run("valid groups count nothing", func(t *testing.T) {
		// Given: a declarable hand with one ungrouped pair
		validation := ValidateHand([]entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-9", "S-10", "S-11")},
			{Cards: cards("C-13", "D-4")},
		}, wild)

		// When: the hand is scored
		score := Score(validation, wild, maxScore)

		// Then: only the deadwood counts, face cards are ten
		assert.Equal(t, 14, score)
	})

	t.Run("wild cards count zero", func(t *testing.T) {
		validation := ValidateHand([]entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-9", "S-10", "S-11")},
			{Cards: cards("C-7", "H-2")},
			{Cards: cards("JK-1")},
		}, wild)

		score := Score(validation, wild, maxScore)

		assert.Equal(t, 2, score)
	})

	t.Run("hand without the sequence requirement counts every card", func(t *testing.T) {
		// Given: a valid set and a valid pure sequence but only one sequence
		validation := ValidateHand([]entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-9", "C-9", "D-9")},
		}, wild)

		// When: the hand is scored
		score := Score(validation, wild, maxScore)

		// Then: it is scored as if no group were valid
		assert.Equal(t, 3+4+5+9+9+9, score)
	})

	t.Run("score is capped", func(t *testing.T) {
		// Given: a hand of high cards worth far more than the cap
		validation := ValidateHand([]entity.CardGroup{
			{Cards: cards("H-14", "S-13", "D-12", "C-11", "H-10", "S-10", "D-9", "C-9", "H-13", "S-12", "D-11", "C-14", "H-12")},
		}, wild)

		// When: the hand is scored
		score := Score(validation, wild, maxScore)

		// Then: the score is clamped
		assert.Equal(t, maxScore, score)
	})

	t.Run("score grows with deadwood rank", func(t *testing.T) {
		previous := -1
		for rank := 2; rank <= entity.RankAce; rank++ {
			if rank == wild.Rank() {
				continue
			}
			validation := ValidateHand([]entity.CardGroup{
				{Cards: entity.Cards{entity.NewCard(entity.Spades, rank)}},
			}, wild)

			score := Score(validation, wild, maxScore)

			assert.GreaterOrEqual(t, score, previous)
			previous = score
		}
	})
}
