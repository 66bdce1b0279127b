package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTKnownLocale(t *testing.T) {
	assert.Equal(t, "関連する記憶:", T("memory_header", "ja"))
}

func TestTFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Relevant memories:", T("memory_header", "pt"))
}

func TestTUnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "not_a_real_key", T("not_a_real_key", "en"))
}

func TestIsNoneWordMatchesAnyLocale(t *testing.T) {
	assert.True(t, IsNoneWord("なし"))
	assert.True(t, IsNoneWord(" NONE "))
	assert.True(t, IsNoneWord("aucun"))
}

func TestIsNoneWordRejectsOther(t *testing.T) {
	assert.False(t, IsNoneWord("the bookshelf"))
}
