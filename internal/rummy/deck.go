package rummy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

const (
	// DeckSize is two 52-card decks plus two printed jokers.
	DeckSize = 2*52 + 2
)

var ErrNotEnoughCards = errors.New("not enough cards to deal")

// NewDeck returns the 106-card shoe in a fixed order.
func NewDeck() entity.Cards {
	deck := make(entity.Cards, 0, DeckSize)
	for range 2 {
		for _, suit := range entity.Suits {
			for rank := 2; rank <= entity.RankAce; rank++ {
				deck = append(deck, entity.NewCard(suit, rank))
			}
		}
	}

	return append(deck, entity.JokerOne, entity.JokerTwo)
}

// Deal is the outcome of dealing a round. The last element of ClosedDeck is its top;
// the wildcard sits face up at the bottom (index 0).
type Deal struct {
	Hands      []entity.Cards
	OpenCard   entity.Card
	WildCard   entity.Card
	ClosedDeck entity.Cards
}

// Dealer shuffles and deals. It is safe for concurrent use by many tables.
type Dealer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDealer(seed uint64) *Dealer {
	return &Dealer{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint: gosec // game shuffle, not crypto
	}
}

func NewRandomDealer() *Dealer {
	return NewDealer(uint64(time.Now().UnixNano()))
}

// Shuffle returns a shuffled copy of the cards.
func (that *Dealer) Shuffle(cards entity.Cards) entity.Cards {
	out := make(entity.Cards, len(cards))
	copy(out, cards)

	that.mu.Lock()
	that.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	that.mu.Unlock()

	return out
}

// Deal shuffles a fresh shoe and deals handSize cards to each player one at a time,
// then turns the open card and picks the first non-joker of the remainder as wildcard.
func (that *Dealer) Deal(players, handSize int) (Deal, error) {
	if players < 1 || players*handSize+2 > DeckSize {
		return Deal{}, fmt.Errorf("%w: %d players x %d cards", ErrNotEnoughCards, players, handSize)
	}

	shoe := that.Shuffle(NewDeck())
	pos := 0

	hands := make([]entity.Cards, players)
	for range handSize {
		for p := range hands {
			hands[p] = append(hands[p], shoe[pos])
			pos++
		}
	}

	openCard := shoe[pos]
	pos++

	rest := shoe[pos:]
	wildIdx := 0
	for wildIdx < len(rest) && rest[wildIdx].IsJoker() {
		wildIdx++
	}
	if wildIdx == len(rest) {
		return Deal{}, fmt.Errorf("%w: no wildcard candidate", ErrNotEnoughCards)
	}
	wildCard := rest[wildIdx]

	closed := make(entity.Cards, 0, len(rest))
	closed = append(closed, wildCard)
	closed = append(closed, rest[:wildIdx]...)
	closed = append(closed, rest[wildIdx+1:]...)

	return Deal{
		Hands:      hands,
		OpenCard:   openCard,
		WildCard:   wildCard,
		ClosedDeck: closed,
	}, nil
}

// Reshuffle turns the open deck, except its top card, into a new closed deck.
func (that *Dealer) Reshuffle(openDeck entity.Cards) (closed entity.Cards, open entity.Cards) {
	if len(openDeck) <= 1 {
		return nil, openDeck
	}

	top := openDeck.Top()
	closed = that.Shuffle(openDeck[:len(openDeck)-1])

	return closed, entity.Cards{top}
}
