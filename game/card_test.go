// game/card_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck()

	if len(deck) != DeckSize {
		t.Fatalf("Expected deck size %d, got %d", DeckSize, len(deck))
	}

	// Every color/rank pair appears exactly DeckCopies times.
	counts := make(map[Card]int)
	for _, c := range deck {
		counts[c]++
	}
	for _, color := range Palette {
		for rank := Rank(0); rank < RankCount; rank++ {
			card := Card{Color: color, Rank: rank}
			if counts[card] != DeckCopies {
				t.Errorf("Expected %d copies of %v, got %d", DeckCopies, card, counts[card])
			}
		}
	}

	wilds := 0
	for _, c := range deck {
		if c.IsWild() {
			wilds++
		}
	}
	if wilds != len(Palette)*DeckCopies {
		t.Errorf("Expected %d wild cards, got %d", len(Palette)*DeckCopies, wilds)
	}
}

func TestShuffleDeck_IsPermutation(t *testing.T) {
	deck := NewDeck()
	shuffled := ShuffleDeck(deck, rand.New(rand.NewSource(42)))

	if len(shuffled) != len(deck) {
		t.Fatalf("Shuffle changed deck size: %d -> %d", len(deck), len(shuffled))
	}

	before := make(map[Card]int)
	after := make(map[Card]int)
	for i := range deck {
		before[deck[i]]++
		after[shuffled[i]]++
	}
	for card, n := range before {
		if after[card] != n {
			t.Errorf("Card %v count changed: %d -> %d", card, n, after[card])
		}
	}
}

func TestShuffleDeck_Deterministic(t *testing.T) {
	a := ShuffleDeck(NewDeck(), rand.New(rand.NewSource(7)))
	b := ShuffleDeck(NewDeck(), rand.New(rand.NewSource(7)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same seed produced different orders at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestShuffleDeck_DoesNotMutateInput(t *testing.T) {
	deck := NewDeck()
	orig := make([]Card, len(deck))
	copy(orig, deck)

	ShuffleDeck(deck, rand.New(rand.NewSource(1)))

	for i := range deck {
		if deck[i] != orig[i] {
			t.Fatalf("Shuffle mutated its input at index %d", i)
		}
	}
}

func TestValidColor(t *testing.T) {
	for _, color := range Palette {
		assert.True(t, ValidColor(color), "palette color %q should validate", color)
	}
	assert.False(t, ValidColor("purple"))
	assert.False(t, ValidColor(""))
	assert.False(t, ValidColor("RED"))
}

func TestCanPlay(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		topRank Rank
		active  Color
		want    bool
	}{
		{"matches active color", Card{ColorRed, 3}, 5, ColorRed, true},
		{"matches top rank", Card{ColorBlue, 5}, 5, ColorRed, true},
		{"matches both", Card{ColorRed, 5}, 5, ColorRed, true},
		{"matches neither", Card{ColorGreen, 2}, 5, ColorRed, false},
		{"wild always plays", Card{ColorGreen, WildRank}, 5, ColorRed, true},
		{"wild rank on top lets wilds match", Card{ColorBlue, WildRank}, WildRank, ColorRed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlay(tt.card, tt.topRank, tt.active))
		})
	}
}
