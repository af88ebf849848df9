package rummy

import (
	"sort"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

const (
	MinGroupSize = 3
	MaxSetSize   = 4
)

// ValidateGroup classifies cards as, in priority order, a pure sequence, an impure
// sequence or a set. Anything else comes back undefined and invalid.
func ValidateGroup(cards entity.Cards, wildCard entity.Card) entity.CardGroup {
	group := entity.CardGroup{Cards: cards, GroupState: entity.GroupUndefined}
	if len(cards) < MinGroupSize {
		return group
	}

	if ordered, lowAce, ok := pureSequence(cards); ok {
		return entity.CardGroup{Cards: ordered, GroupState: entity.GroupPureSequence, Valid: true, LowAce: lowAce}
	}

	if ordered, lowAce, ok := impureSequence(cards, wildCard); ok {
		return entity.CardGroup{Cards: ordered, GroupState: entity.GroupImpureSequence, Valid: true, LowAce: lowAce}
	}

	if isSet(cards, wildCard) {
		return entity.CardGroup{Cards: cards, GroupState: entity.GroupSet, Valid: true}
	}

	return group
}

// rankOf maps a card to its rank in a run; an ace is 1 when lowAce is set.
func rankOf(card entity.Card, lowAce bool) int {
	rank := card.Rank()
	if lowAce && rank == entity.RankAce {
		return entity.RankLowAce
	}
	return rank
}

func hasAce(cards entity.Cards) bool {
	for _, card := range cards {
		if !card.IsJoker() && card.Rank() == entity.RankAce {
			return true
		}
	}
	return false
}

func sameSuit(cards entity.Cards) bool {
	for _, card := range cards[1:] {
		if card.Suit() != cards[0].Suit() {
			return false
		}
	}
	return true
}

func sortedByRank(cards entity.Cards, lowAce bool) entity.Cards {
	out := make(entity.Cards, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(out[i], lowAce) < rankOf(out[j], lowAce)
	})
	return out
}

// aceModes lists the ace interpretations worth trying: high first, low only when an ace is present.
func aceModes(cards entity.Cards) []bool {
	if hasAce(cards) {
		return []bool{false, true}
	}
	return []bool{false}
}

func pureSequence(cards entity.Cards) (entity.Cards, bool, bool) {
	for _, card := range cards {
		if card.IsJoker() {
			return nil, false, false
		}
	}
	if !sameSuit(cards) {
		return nil, false, false
	}

	for _, lowAce := range aceModes(cards) {
		ordered := sortedByRank(cards, lowAce)
		consecutive := true
		for i := 1; i < len(ordered); i++ {
			if rankOf(ordered[i], lowAce) != rankOf(ordered[i-1], lowAce)+1 {
				consecutive = false
				break
			}
		}
		if consecutive {
			return ordered, lowAce, true
		}
	}

	return nil, false, false
}

func splitWild(cards entity.Cards, wildCard entity.Card) (naturals, wilds entity.Cards) {
	for _, card := range cards {
		if card.IsWild(wildCard) {
			wilds = append(wilds, card)
		} else {
			naturals = append(naturals, card)
		}
	}
	return naturals, wilds
}

// impureSequence accepts a same-suit run whose rank gaps are filled by exactly as many wild
// cards. A group needs at least one natural card to be a run.
func impureSequence(cards entity.Cards, wildCard entity.Card) (entity.Cards, bool, bool) {
	naturals, wilds := splitWild(cards, wildCard)
	if len(naturals) == 0 {
		return nil, false, false
	}
	if !sameSuit(naturals) {
		return nil, false, false
	}

	for _, lowAce := range aceModes(naturals) {
		ordered := sortedByRank(naturals, lowAce)

		gaps := 0
		distinct := true
		for i := 1; i < len(ordered); i++ {
			diff := rankOf(ordered[i], lowAce) - rankOf(ordered[i-1], lowAce)
			if diff == 0 {
				distinct = false
				break
			}
			gaps += diff - 1
		}
		if !distinct || gaps != len(wilds) {
			continue
		}

		lowest, highest := 2, entity.RankAce
		if lowAce {
			lowest, highest = entity.RankLowAce, entity.RankKing
		}
		if len(cards) > highest-lowest+1 {
			continue
		}

		return fillRun(ordered, wilds, lowAce), lowAce, true
	}

	return nil, false, false
}

// fillRun lays the run out in rank order with wild cards in the gaps.
func fillRun(ordered, wilds entity.Cards, lowAce bool) entity.Cards {
	out := make(entity.Cards, 0, len(ordered)+len(wilds))
	spare := wilds

	out = append(out, ordered[0])
	for i := 1; i < len(ordered); i++ {
		for r := rankOf(ordered[i-1], lowAce) + 1; r < rankOf(ordered[i], lowAce); r++ {
			out = append(out, spare[0])
			spare = spare[1:]
		}
		out = append(out, ordered[i])
	}

	return append(out, spare...)
}

func withoutJokers(cards entity.Cards) entity.Cards {
	var out entity.Cards
	for _, card := range cards {
		if !card.IsJoker() {
			out = append(out, card)
		}
	}
	return out
}

func isSet(cards entity.Cards, wildCard entity.Card) bool {
	if len(cards) > MaxSetSize {
		return false
	}

	naturals, _ := splitWild(cards, wildCard)
	if len(naturals) == 0 {
		// wildcard-rank cards still make a set of their own rank
		naturals = withoutJokers(cards)
	}
	if len(naturals) == 0 {
		return false
	}

	rank := naturals[0].Rank()
	suits := make(map[entity.Suit]bool, len(naturals))
	for _, card := range naturals {
		if card.Rank() != rank || suits[card.Suit()] {
			return false
		}
		suits[card.Suit()] = true
	}

	return true
}

// Validation is the result of validating a full hand partition.
type Validation struct {
	Groups        []entity.CardGroup
	PureSequences int
	Sequences     int
}

// Declarable reports whether the hand meets the sequence requirement:
// at least one pure sequence and at least two sequences overall.
func (that Validation) Declarable() bool {
	return that.PureSequences >= 1 && that.Sequences >= 2
}

// Valid reports a winning declaration: declarable with every card in a valid group.
func (that Validation) Valid() bool {
	if !that.Declarable() {
		return false
	}
	for _, group := range that.Groups {
		if !group.Valid {
			return false
		}
	}
	return true
}

// ValidateHand validates every group of a partition.
func ValidateHand(groups []entity.CardGroup, wildCard entity.Card) Validation {
	result := Validation{Groups: make([]entity.CardGroup, 0, len(groups))}

	for _, group := range groups {
		if len(group.Cards) == 0 {
			continue
		}

		validated := ValidateGroup(group.Cards, wildCard)
		result.Groups = append(result.Groups, validated)

		switch validated.GroupState {
		case entity.GroupPureSequence:
			result.PureSequences++
			result.Sequences++
		case entity.GroupImpureSequence:
			result.Sequences++
		case entity.GroupSet, entity.GroupUndefined:
		}
	}

	return result
}

// HandGroups returns the partition to validate for a player: the submitted groups when
// they still cover the hand, otherwise the whole hand as a single group.
func HandGroups(player *entity.Player) []entity.CardGroup {
	if len(player.Groups) > 0 && entity.FlattenGroups(player.Groups).SameMultiset(player.Cards) {
		return player.Groups
	}
	return []entity.CardGroup{{Cards: player.Cards}}
}
