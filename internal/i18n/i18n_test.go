// internal/i18n/i18n_test.go
package i18n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Số ngày dừng chiến đấu không hợp lệ", T("vi", KeyInvalidStopFightingDay))
	assert.Equal(t, "Invalid parameters", T("en", KeyInvalidParameters))
	assert.Equal(t, "Invalid input", T("en", KeyValidationInvalid, "input"))
	// unknown language falls back to Vietnamese
	assert.Equal(t, "Lỗi nội bộ máy chủ", T("fr", KeyInternal))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
	assert.True(t, Has(KeyComponentNotExisted))
	assert.False(t, Has("no.such.key"))
}

func TestLocalesShareKeys(t *testing.T) {
	load := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	vi, en := load("vi.json"), load("en.json")
	assert.Len(t, en, len(vi))
	for key := range vi {
		assert.Contains(t, en, key)
	}
}
