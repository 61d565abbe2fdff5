package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTempPassword(t *testing.T) {
	pw, err := GenerateTempPassword()
	require.NoError(t, err)

	assert.Len(t, pw, TempPasswordLength+len(tempPasswordSuffix))
	assert.True(t, strings.HasSuffix(pw, tempPasswordSuffix))
	for _, r := range pw[:TempPasswordLength] {
		assert.Contains(t, tempPasswordAlphabet, string(r))
	}
}

func TestGenerateTempPassword_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.False(t, seen[pw], "duplicate temp password generated")
		seen[pw] = true
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
