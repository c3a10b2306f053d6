package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("LOBBY_TEST_STRING", "hello")
	t.Setenv("LOBBY_TEST_INT", " 42 ")
	t.Setenv("LOBBY_TEST_BAD_INT", "forty-two")
	t.Setenv("LOBBY_TEST_BOOL", "true")
	t.Setenv("LOBBY_TEST_DURATION", "90s")

	assert.Equal(t, "hello", GetString("LOBBY_TEST_STRING", "x"))
	assert.Equal(t, "x", GetString("LOBBY_TEST_MISSING", "x"))

	assert.Equal(t, 42, GetInt("LOBBY_TEST_INT", 0))
	assert.Equal(t, 7, GetInt("LOBBY_TEST_BAD_INT", 7))
	assert.Equal(t, 7, GetInt("LOBBY_TEST_MISSING", 7))

	assert.True(t, GetBool("LOBBY_TEST_BOOL", false))
	assert.False(t, GetBool("LOBBY_TEST_MISSING", false))

	assert.Equal(t, 90*time.Second, GetDuration("LOBBY_TEST_DURATION", 0))
	assert.Equal(t, time.Minute, GetDuration("LOBBY_TEST_MISSING", time.Minute))
}
