package rummy

import (
	"testing"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wild entity.Card = "D-7"

func cards(codes ...string) entity.Cards {
	out := make(entity.Cards, 0, len(codes))
	for _, code := range codes {
		out = append(out, entity.Card(code))
	}
	return out
}

func TestValidateGroup(t *testing.T) {
	tests := []struct {
		name   string
		cards  entity.Cards
		state  entity.GroupState
		valid  bool
		lowAce bool
		order  entity.Cards
	}{
		{
			name:  "pure sequence in any order",
			cards: cards("H-5", "H-3", "H-4"),
			state: entity.GroupPureSequence,
			valid: true,
			order: cards("H-3", "H-4", "H-5"),
		},
		{
			name:  "pure sequence with the wildcard rank in its natural place",
			cards: cards("S-6", "S-7", "S-8"),
			state: entity.GroupPureSequence,
			valid: true,
		},
		{
			name:   "ace completes a low run",
			cards:  cards("C-2", "C-14", "C-3"),
			state:  entity.GroupPureSequence,
			valid:  true,
			lowAce: true,
			order:  cards("C-14", "C-2", "C-3"),
		},
		{
			name:  "ace completes a high run",
			cards: cards("C-13", "C-14", "C-12"),
			state: entity.GroupPureSequence,
			valid: true,
			order: cards("C-12", "C-13", "C-14"),
		},
		{
			name:  "no wraparound through the ace",
			cards: cards("C-13", "C-14", "C-2"),
			valid: false,
		},
		{
			name:  "printed joker fills a gap",
			cards: cards("H-5", "JK-1", "H-7"),
			state: entity.GroupImpureSequence,
			valid: true,
			order: cards("H-5", "JK-1", "H-7"),
		},
		{
			name:  "wildcard rank fills a gap",
			cards: cards("H-9", "C-7", "H-11"),
			state: entity.GroupImpureSequence,
			valid: true,
			order: cards("H-9", "C-7", "H-11"),
		},
		{
			name:  "a joker without a gap to fill",
			cards: cards("H-9", "H-10", "JK-2"),
			valid: false,
		},
		{
			name:  "more jokers than gaps",
			cards: cards("H-9", "JK-1", "H-11", "JK-2"),
			valid: false,
		},
		{
			name:  "jokers alone are not a meld",
			cards: cards("JK-1", "JK-2", "JK-1"),
			valid: false,
		},
		{
			name:  "wildcard-rank cards alone form a set, not a run",
			cards: cards("S-7", "C-7", "H-7"),
			state: entity.GroupSet,
			valid: true,
		},
		{
			name:   "joker with a low ace",
			cards:  cards("S-14", "S-3", "JK-1"),
			state:  entity.GroupImpureSequence,
			valid:  true,
			lowAce: true,
			order:  cards("S-14", "JK-1", "S-3"),
		},
		{
			name:  "too many gaps for the jokers",
			cards: cards("H-2", "H-9", "JK-1"),
			valid: false,
		},
		{
			name:  "set of three suits",
			cards: cards("H-9", "S-9", "C-9"),
			state: entity.GroupSet,
			valid: true,
		},
		{
			name:  "set completed with a joker",
			cards: cards("H-12", "S-12", "JK-2", "C-12"),
			state: entity.GroupSet,
			valid: true,
		},
		{
			name:  "set with a repeated suit",
			cards: cards("H-9", "H-9", "C-9"),
			valid: false,
		},
		{
			name:  "set larger than four",
			cards: cards("H-9", "S-9", "C-9", "D-9", "JK-1"),
			valid: false,
		},
		{
			name:  "two cards are never a meld",
			cards: cards("H-9", "H-10"),
			valid: false,
		},
		{
			name:  "mixed suits without jokers",
			cards: cards("H-4", "S-5", "H-6"),
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: the group is validated
			group := ValidateGroup(tt.cards, wild)

			// Then: it is classified as expected
			assert.Equal(t, tt.valid, group.Valid)
			if tt.valid {
				assert.Equal(t, tt.state, group.GroupState)
			} else {
				assert.Equal(t, entity.GroupUndefined, group.GroupState)
			}
			assert.Equal(t, tt.lowAce, group.LowAce)
			if tt.order != nil {
				assert.Equal(t, tt.order, group.Cards)
			}
			assert.True(t, group.Cards.SameMultiset(tt.cards))
		})
	}
}

func TestValidateHand(t *testing.T) {
	t.Run("one pure and one impure sequence make a declarable hand", func(t *testing.T) {
		// Given: a pure run, an impure run and two sets
		groups := []entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-9", "JK-1", "S-11")},
			{Cards: cards("C-13", "D-13", "S-13")},
			{Cards: cards("H-8", "S-8", "C-8", "D-7")},
		}

		// When: the hand is validated
		validation := ValidateHand(groups, wild)

		// Then: it is declarable and valid
		assert.Equal(t, 1, validation.PureSequences)
		assert.Equal(t, 2, validation.Sequences)
		assert.True(t, validation.Declarable())
		assert.True(t, validation.Valid())
	})

	t.Run("two pure sequences are declarable", func(t *testing.T) {
		groups := []entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-10", "S-11", "S-12", "S-13")},
			{Cards: cards("C-2", "D-2", "S-2")},
			{Cards: cards("C-5", "D-5", "S-5")},
		}

		validation := ValidateHand(groups, wild)

		assert.True(t, validation.Valid())
	})

	t.Run("no pure sequence is never declarable", func(t *testing.T) {
		// Given: only impure sequences and sets, all individually valid
		groups := []entity.CardGroup{
			{Cards: cards("H-3", "JK-1", "H-5")},
			{Cards: cards("S-9", "JK-2", "S-11")},
			{Cards: cards("C-9", "C-7", "C-11")},
			{Cards: cards("H-8", "S-8", "C-8", "D-8")},
		}

		// When: the hand is validated
		validation := ValidateHand(groups, wild)

		// Then: every group is valid but the hand is not declarable
		for _, group := range validation.Groups {
			assert.True(t, group.Valid)
		}
		assert.Zero(t, validation.PureSequences)
		assert.False(t, validation.Declarable())
		assert.False(t, validation.Valid())
	})

	t.Run("wild cards alone do not count as a second sequence", func(t *testing.T) {
		// Given: one pure run and three wildcard-rank cards of mixed suits
		groups := []entity.CardGroup{
			{Cards: cards("H-2", "H-3", "H-4")},
			{Cards: cards("S-7", "C-7", "H-7")},
		}

		// When: the hand is validated
		validation := ValidateHand(groups, wild)

		// Then: the wild group is a set and the hand lacks a second sequence
		assert.Equal(t, entity.GroupSet, validation.Groups[1].GroupState)
		assert.Equal(t, 1, validation.Sequences)
		assert.False(t, validation.Declarable())
	})

	t.Run("declarable hand with deadwood is not a valid declaration", func(t *testing.T) {
		groups := []entity.CardGroup{
			{Cards: cards("H-3", "H-4", "H-5")},
			{Cards: cards("S-9", "S-10", "S-11")},
			{Cards: cards("C-2", "D-9")},
		}

		validation := ValidateHand(groups, wild)

		assert.True(t, validation.Declarable())
		assert.False(t, validation.Valid())
	})
}

func TestHandGroups(t *testing.T) {
	t.Run("uses submitted groups that cover the hand", func(t *testing.T) {
		player := &entity.Player{
			Cards:  cards("H-3", "H-4", "H-5", "S-9"),
			Groups: []entity.CardGroup{{Cards: cards("H-3", "H-4", "H-5")}, {Cards: cards("S-9")}},
		}

		groups := HandGroups(player)

		require.Len(t, groups, 2)
	})

	t.Run("falls back to the whole hand", func(t *testing.T) {
		player := &entity.Player{
			Cards:  cards("H-3", "H-4", "H-5", "S-9"),
			Groups: []entity.CardGroup{{Cards: cards("H-3", "H-4", "H-5")}},
		}

		groups := HandGroups(player)

		require.Len(t, groups, 1)
		assert.Equal(t, player.Cards, groups[0].Cards)
	})
}
