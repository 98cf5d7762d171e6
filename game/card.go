// game/card.go
package game

import "math/rand"

// Color is one of the four playable card colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// Palette lists every assignable color in a fixed order.
var Palette = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// ValidColor reports whether c is a member of the palette.
func ValidColor(c Color) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// Rank runs 0..8. Rank 8 is the wild card; its effective color is chosen
// by the player after it is played.
type Rank int

const (
	RankCount = 9
	WildRank  Rank = 8
)

// DeckCopies is how many copies of each color×rank pair a full deck holds.
const DeckCopies = 2

// DeckSize is the fixed size of a full deck: 4 colors × 9 ranks × 2 copies.
const DeckSize = 4 * RankCount * DeckCopies

// Card is a rules-engine value type.
type Card struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
}

// IsWild reports whether the card is a wild card.
func (c Card) IsWild() bool {
	return c.Rank == WildRank
}

// NewDeck returns an ordered full deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for copyN := 0; copyN < DeckCopies; copyN++ {
		for _, color := range Palette {
			for r := Rank(0); r < RankCount; r++ {
				deck = append(deck, Card{Color: color, Rank: r})
			}
		}
	}
	return deck
}

// ShuffleDeck returns a Fisher-Yates shuffled copy of deck using rng, so
// callers can seed deals deterministically.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// CanPlay reports whether card is legal on top of the pile: it must match
// the active color or the top card's rank, or be wild.
func CanPlay(card Card, topRank Rank, active Color) bool {
	if card.IsWild() {
		return true
	}
	return card.Color == active || card.Rank == topRank
}
