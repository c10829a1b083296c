package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{"#Sale", " promo ", "", "##PROMO", "#", "Summer24"})
	assert.Equal(t, []string{"sale", "promo", "summer24"}, got)
}

func TestNormalizeHashtagsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeHashtags(nil))
	assert.Empty(t, NormalizeHashtags([]string{" ", "#"}))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"#sale", "promo"}, ParseTags(`["#sale", 'promo']`))
	assert.Empty(t, ParseTags(""))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("promo time #summer", []string{"sale", "promo"}))
	assert.False(t, ContainsAny("nothing here", []string{"sale", "promo"}))
	assert.False(t, ContainsAny("anything", []string{""}))
	assert.False(t, ContainsAny("anything", nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc", Truncate("abc", 0))

	out := Truncate(strings.Repeat("x", 20), 5)
	assert.True(t, strings.HasPrefix(out, "xxxxx\n"))
	assert.Contains(t, out, "truncated")

	// "é" is two bytes; a cut inside it backs off to the previous rune.
	out = Truncate("abé", 3)
	assert.True(t, strings.HasPrefix(out, "ab\n"))
	assert.True(t, utf8.ValidString(out))
}
