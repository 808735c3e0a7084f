package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"round history line", "Round History: 1.23x, 4.5x, 10x", []string{"1.23", "4.5", "10"}},
		{"upper case x", "2.5X then 3X", []string{"2.5", "3"}},
		{"leading dots are not part of the token", "...2.00x and 1.23x...", []string{"2.00", "1.23"}},
		{"duplicates kept in order", "1.1x 2x 1.1x", []string{"1.1", "2", "1.1"}},
		{"fraction without integer part skipped", ".5x", nil},
		{"fraction skipped among others", "cash out at .5x or 3x", []string{"3"}},
		{"repeated dots kept verbatim", "1.2.3x", []string{"1.2.3"}},
		{"no tokens", "nothing to see here", nil},
		{"x without number", "x marks the spot", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTokens(tt.text))
		})
	}
}

func TestExtractTokens_Idempotent(t *testing.T) {
	text := "Rounds 1.01x 15.2x 2.00x 2.0x"
	assert.Equal(t, ExtractTokens(text), ExtractTokens(text))
}

func TestMerge_PreservesOrderAndDedupesExactly(t *testing.T) {
	merged, changed := Merge([]string{"1.23", "4.5"}, "...2.00x and 1.23x...")
	assert.True(t, changed)
	assert.Equal(t, []string{"1.23", "4.5", "2.00"}, merged)

	merged, changed = Merge([]string{"2.0"}, "2.00x")
	assert.True(t, changed)
	assert.Equal(t, []string{"2.0", "2.00"}, merged)
}

func TestMerge_NoNewTokens(t *testing.T) {
	prior := []string{"1.5", "3"}
	merged, changed := Merge(prior, "1.5x and 3x again")
	assert.False(t, changed)
	assert.Equal(t, prior, merged)
}

func TestMerge_Monotonic(t *testing.T) {
	prior := []string{"9.9", "1.1", "5"}
	merged, _ := Merge(prior, "7x 1.1x 8.8x")
	assert.GreaterOrEqual(t, len(merged), len(prior))
	assert.Equal(t, prior, merged[:len(prior)])
}

func TestMerge_Idempotent(t *testing.T) {
	text := "3.3x 4.4x 3.3x"
	once, _ := Merge([]string{"1"}, text)
	twice, changed := Merge(once, text)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestMerge_DoesNotAliasPrior(t *testing.T) {
	prior := make([]string, 1, 10)
	prior[0] = "1"
	merged, _ := Merge(prior, "2x")
	merged[0] = "changed"
	assert.Equal(t, "1", prior[0])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Historical Data: 1.23x, 4.5x, 10x", Format(DefaultLabel, []string{"1.23", "4.5", "10"}))
	assert.Equal(t, "Historical Data: ", Format(DefaultLabel, nil))
	assert.Equal(t, "H: 2x", Format("H", []string{"2"}))

	values := []string{"1", "2"}
	assert.Equal(t, Format("L", values), Format("L", values))
}
