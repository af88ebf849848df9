package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
)

type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Joker    Suit = "JK"
)

var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

const (
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
	// RankLowAce is the rank an ace takes when it completes a low run (A-2-3).
	RankLowAce = 1
)

const (
	JokerOne Card = "JK-1"
	JokerTwo Card = "JK-2"
)

// Card is a card code "<suit>-<rank>", e.g. "H-14" for the ace of hearts.
// Printed jokers are "JK-1" and "JK-2".
type Card string

func NewCard(suit Suit, rank int) Card {
	return Card(fmt.Sprintf("%s-%d", suit, rank))
}

// ParseCard validates a card code received from a client.
func ParseCard(code string) (Card, error) {
	card := Card(code)
	if card.IsJoker() {
		return card, nil
	}

	suit, rank, ok := card.split()
	if !ok || rank < 2 || rank > RankAce {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidCard, code)
	}

	switch suit {
	case Spades, Hearts, Diamonds, Clubs:
		return card, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidCard, code)
	}
}

func (that Card) split() (Suit, int, bool) {
	suit, rank, found := strings.Cut(string(that), "-")
	if !found {
		return "", 0, false
	}

	n, err := strconv.Atoi(rank)
	if err != nil {
		return "", 0, false
	}

	return Suit(suit), n, true
}

func (that Card) Suit() Suit {
	suit, _, _ := that.split()
	return suit
}

// Rank returns 2..14 for regular cards and 0 for printed jokers.
func (that Card) Rank() int {
	if that.IsJoker() {
		return 0
	}
	_, rank, _ := that.split()
	return rank
}

func (that Card) IsJoker() bool {
	return that == JokerOne || that == JokerTwo
}

// IsWild reports whether the card substitutes for any other card: a printed joker,
// or any card sharing the wildcard's rank.
func (that Card) IsWild(wildCard Card) bool {
	if that.IsJoker() {
		return true
	}
	return wildCard != "" && !wildCard.IsJoker() && that.Rank() == wildCard.Rank()
}

// Points is the deadwood value of the card. Wild cards count zero.
func (that Card) Points(wildCard Card) int {
	if that.IsWild(wildCard) {
		return 0
	}
	rank := that.Rank()
	if rank >= RankJack {
		return 10
	}
	return rank
}

// Cards is an ordered sequence of card codes.
type Cards []Card

func (that Cards) Contains(card Card) bool {
	return that.Index(card) >= 0
}

func (that Cards) Index(card Card) int {
	for i, c := range that {
		if c == card {
			return i
		}
	}
	return -1
}

// Remove returns a copy without the first occurrence of card.
func (that Cards) Remove(card Card) (Cards, bool) {
	idx := that.Index(card)
	if idx < 0 {
		return that, false
	}

	out := make(Cards, 0, len(that)-1)
	out = append(out, that[:idx]...)
	return append(out, that[idx+1:]...), true
}

func (that Cards) Top() Card {
	if len(that) == 0 {
		return ""
	}
	return that[len(that)-1]
}

// SameMultiset reports whether both sequences hold the same cards with the same counts.
func (that Cards) SameMultiset(other Cards) bool {
	if len(that) != len(other) {
		return false
	}

	counts := make(map[Card]int, len(that))
	for _, c := range that {
		counts[c]++
	}
	for _, c := range other {
		counts[c]--
		if counts[c] < 0 {
			return false
		}
	}

	return true
}
