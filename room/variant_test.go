// room/variant_test.go
package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Variant
		wantErr error
	}{
		{"empty defaults to cards", "", VariantCards, nil},
		{"cards", "cards", VariantCards, nil},
		{"trivia", "trivia", VariantTrivia, nil},
		{"unknown variant", "chess", "", ErrUnknownVariant},
		{"case sensitive", "Cards", "", ErrUnknownVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVariant(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantCapacity(t *testing.T) {
	cards := newTestRoom(t, VariantCards, testOptions())
	assert.Equal(t, 4, cards.room.MaxPlayers(), "card rooms seat one player per palette color")

	trivia := newTestRoom(t, VariantTrivia, testOptions())
	assert.Equal(t, 8, trivia.room.MaxPlayers())
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 7, opts.HandSize)
	assert.Greater(t, opts.InboxSize, 0)
	assert.NotEmpty(t, opts.Questions, "the embedded catalog backs rooms with no store configured")
	assert.Greater(t, opts.VoteWindow, opts.AnimationWindow)
}
