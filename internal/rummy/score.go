package rummy

import "github.com/rocketscienceinc/rummy-backend/internal/entity"

// Score sums the deadwood of a validated hand, capped at maxScore.
// A hand that misses the sequence requirement counts every card.
func Score(validation Validation, wildCard entity.Card, maxScore int) int {
	declarable := validation.Declarable()

	total := 0
	for _, group := range validation.Groups {
		if declarable && group.Valid {
			continue
		}
		total += CardsPoints(group.Cards, wildCard)
	}

	return min(total, maxScore)
}

func CardsPoints(cards entity.Cards, wildCard entity.Card) int {
	total := 0
	for _, card := range cards {
		total += card.Points(wildCard)
	}
	return total
}
