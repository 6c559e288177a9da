package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCode(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 20:30 UTC on 28 Feb is already 1 March in Jakarta.
	ts := time.Date(2025, 2, 28, 20, 30, 0, 0, time.UTC)

	day := ServiceDay(ts, jakarta)
	assert.Equal(t, "250301", day)
	assert.Equal(t, "250228", ServiceDay(ts, nil))
	assert.Equal(t, "SRV250301007", ServiceCode(day, 7))
	assert.Equal(t, "SRV250301999", ServiceCode(day, MaxDailyServices))
	assert.Regexp(t, `^SRV\d{6}\d{3}$`, ServiceCode(day, 42))
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateAccessToken(Subject{ID: id, Email: "tech@example.com", Name: "Tech One", Role: "technician"})
	require.NoError(t, err)

	sub, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, "Tech One", sub.Name)
	assert.Equal(t, "technician", sub.Role)

	_, err = NewJWTManager("other", time.Hour).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken(Subject{ID: id, Email: "a@b.c", Name: "A", Role: "admin"})
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
