// game/card_game.go
package game

import (
	"math/rand"
)

// CardPhase is the lifecycle stage of a card-variant session.
type CardPhase string

const (
	CardPhaseLobby         CardPhase = "lobby"
	CardPhasePlaying       CardPhase = "playing"
	CardPhaseAwaitingColor CardPhase = "awaiting-color-choice"
	CardPhaseOver          CardPhase = "game-over"
)

// PlayResult describes the outcome of a successful Play call.
type PlayResult struct {
	Card       Card
	NeedsColor bool
	Won        bool
}

// CardGame is the per-room session state machine for the card variant.
// It is not safe for concurrent use; the owning room serializes access.
type CardGame struct {
	phase    CardPhase
	order    []string // player IDs, seat order fixed at Start
	hands    map[string][]Card
	deck     []Card // top of the deck is the last element
	discard  []Card // top of the pile is the last element
	active   Color
	turn     int
	winner   string
	handSize int
	rng      *rand.Rand
}

// NewCardGame creates a card session in the lobby phase. rng drives every
// shuffle, so tests can seed deals deterministically.
func NewCardGame(handSize int, rng *rand.Rand) *CardGame {
	return &CardGame{
		phase:    CardPhaseLobby,
		hands:    make(map[string][]Card),
		handSize: handSize,
		rng:      rng,
	}
}

// Phase returns the current phase.
func (g *CardGame) Phase() CardPhase { return g.phase }

// Winner returns the winning player's ID once the phase is game-over.
func (g *CardGame) Winner() string { return g.winner }

// ActiveColor returns the color the next card must match.
func (g *CardGame) ActiveColor() Color { return g.active }

// DeckCount returns the number of cards left in the draw pile.
func (g *CardGame) DeckCount() int { return len(g.deck) }

// TopDiscard returns the top card of the discard pile.
func (g *CardGame) TopDiscard() Card {
	if len(g.discard) == 0 {
		return Card{}
	}
	return g.discard[len(g.discard)-1]
}

// CurrentPlayer returns the ID of the player whose turn it is, or "" when
// the session is not in a turn-consuming phase.
func (g *CardGame) CurrentPlayer() string {
	if g.phase != CardPhasePlaying && g.phase != CardPhaseAwaitingColor {
		return ""
	}
	if len(g.order) == 0 {
		return ""
	}
	return g.order[g.turn]
}

// Players returns the seat order.
func (g *CardGame) Players() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Hand returns a copy of a player's hand.
func (g *CardGame) Hand(playerID string) []Card {
	hand := g.hands[playerID]
	out := make([]Card, len(hand))
	copy(out, hand)
	return out
}

// HandCounts returns each player's public card count.
func (g *CardGame) HandCounts() map[string]int {
	counts := make(map[string]int, len(g.order))
	for _, id := range g.order {
		counts[id] = len(g.hands[id])
	}
	return counts
}

// Start shuffles a fresh deck, deals round-robin, flips a non-wild starting
// discard and moves the session into the playing phase. The seat order is
// frozen from playerIDs.
func (g *CardGame) Start(playerIDs []string) error {
	if g.phase != CardPhaseLobby {
		return ErrWrongPhase
	}
	if len(playerIDs) < 2 {
		return ErrNotEnoughPlayers
	}

	g.order = make([]string, len(playerIDs))
	copy(g.order, playerIDs)
	g.deck = ShuffleDeck(NewDeck(), g.rng)
	g.hands = make(map[string][]Card, len(g.order))
	g.discard = nil

	// Round-robin deal, one card at a time.
	for i := 0; i < g.handSize; i++ {
		for _, id := range g.order {
			g.hands[id] = append(g.hands[id], g.pop())
		}
	}

	// The starting discard must not be wild so the active color is defined.
	// Wilds flipped here go to the bottom of the deck.
	for {
		card := g.pop()
		if !card.IsWild() {
			g.discard = append(g.discard, card)
			g.active = card.Color
			break
		}
		g.deck = append([]Card{card}, g.deck...)
	}

	g.turn = 0
	g.winner = ""
	g.phase = CardPhasePlaying
	return nil
}

// Play applies a card from the current player's hand. A wild played without
// a chosen color parks the session in awaiting-color-choice until
// ChooseColor commits; a wild with a color in hand resolves immediately.
// Emptying the hand ends the game without advancing the turn.
func (g *CardGame) Play(playerID string, cardIndex int, chosen Color) (PlayResult, error) {
	if g.phase != CardPhasePlaying {
		return PlayResult{}, ErrWrongPhase
	}
	if playerID != g.CurrentPlayer() {
		return PlayResult{}, ErrNotYourTurn
	}
	hand := g.hands[playerID]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return PlayResult{}, ErrInvalidCardIndex
	}
	card := hand[cardIndex]
	if !CanPlay(card, g.TopDiscard().Rank, g.active) {
		return PlayResult{}, ErrIllegalCard
	}
	if card.IsWild() && chosen != "" && !ValidColor(chosen) {
		return PlayResult{}, ErrInvalidColor
	}

	g.hands[playerID] = append(hand[:cardIndex:cardIndex], hand[cardIndex+1:]...)
	g.discard = append(g.discard, card)

	if card.IsWild() {
		if chosen == "" {
			// Color resolution pending; the turn does not advance yet.
			g.phase = CardPhaseAwaitingColor
			return PlayResult{Card: card, NeedsColor: true}, nil
		}
		g.active = chosen
	} else {
		g.active = card.Color
	}

	if len(g.hands[playerID]) == 0 {
		g.phase = CardPhaseOver
		g.winner = playerID
		return PlayResult{Card: card, Won: true}, nil
	}

	g.advanceTurn()
	return PlayResult{Card: card}, nil
}

// ChooseColor commits the effective color of a pending wild card. Only the
// player who played the wild (still the current player) may choose. A hand
// emptied by the wild is detected here, ending the game instead of
// advancing the turn.
func (g *CardGame) ChooseColor(playerID string, chosen Color) (PlayResult, error) {
	if g.phase != CardPhaseAwaitingColor {
		return PlayResult{}, ErrWrongPhase
	}
	if playerID != g.CurrentPlayer() {
		return PlayResult{}, ErrNotYourTurn
	}
	if !ValidColor(chosen) {
		return PlayResult{}, ErrInvalidColor
	}

	g.active = chosen
	g.phase = CardPhasePlaying

	if len(g.hands[playerID]) == 0 {
		g.phase = CardPhaseOver
		g.winner = playerID
		return PlayResult{Card: g.TopDiscard(), Won: true}, nil
	}

	g.advanceTurn()
	return PlayResult{Card: g.TopDiscard()}, nil
}

// Draw pops a card from the deck into the current player's hand and always
// advances the turn. An empty deck is replenished from the discard pile
// first; only when both are exhausted does the draw fail.
func (g *CardGame) Draw(playerID string) (Card, error) {
	if g.phase != CardPhasePlaying {
		return Card{}, ErrWrongPhase
	}
	if playerID != g.CurrentPlayer() {
		return Card{}, ErrNotYourTurn
	}
	if len(g.deck) == 0 {
		g.replenish()
	}
	if len(g.deck) == 0 {
		return Card{}, ErrDeckExhausted
	}

	card := g.pop()
	g.hands[playerID] = append(g.hands[playerID], card)
	g.advanceTurn()
	return card, nil
}

// RemovePlayer drops a player mid-game. The turn pointer is re-normalized
// against the shrunk seat list by ordinal position: seats above the removed
// one shift down, and removing the turn holder leaves the pointer on the
// next seat, wrapped. The player's cards leave play entirely, shrinking the
// conserved total.
func (g *CardGame) RemovePlayer(playerID string) {
	idx := -1
	for i, id := range g.order {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasCurrent := idx == g.turn

	g.order = append(g.order[:idx], g.order[idx+1:]...)
	delete(g.hands, playerID)

	if len(g.order) == 0 {
		g.phase = CardPhaseOver
		return
	}
	if idx < g.turn {
		g.turn--
	}
	if g.turn >= len(g.order) {
		g.turn = 0
	}
	if wasCurrent && g.phase == CardPhaseAwaitingColor {
		// The player owing a color choice is gone; the previous active
		// color stands and play resumes with the next seat.
		g.phase = CardPhasePlaying
	}
	if len(g.order) == 1 && (g.phase == CardPhasePlaying || g.phase == CardPhaseAwaitingColor) {
		// Last player standing wins by forfeit.
		g.phase = CardPhaseOver
		g.winner = g.order[0]
	}
}

// CardsInPlay returns deck + discard + all hands, for conservation checks.
func (g *CardGame) CardsInPlay() int {
	total := len(g.deck) + len(g.discard)
	for _, hand := range g.hands {
		total += len(hand)
	}
	return total
}

func (g *CardGame) advanceTurn() {
	g.turn = (g.turn + 1) % len(g.order)
}

// pop removes and returns the top card of the deck.
func (g *CardGame) pop() Card {
	card := g.deck[len(g.deck)-1]
	g.deck = g.deck[:len(g.deck)-1]
	return card
}

// replenish reshuffles the discard pile minus its top card back into the
// deck. The top card stays as the new bottom of a one-card pile.
func (g *CardGame) replenish() {
	if len(g.discard) <= 1 {
		return
	}
	top := g.discard[len(g.discard)-1]
	g.deck = ShuffleDeck(g.discard[:len(g.discard)-1], g.rng)
	g.discard = []Card{top}
}
