package session

import (
	"testing"
	"time"

	"github.com/fitly/fashion-ai/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	sess := s.Create()
	require.NotEmpty(t, sess.ID)

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	assert.Empty(t, got.Turns)
}

func TestGetUnknownID(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestGetOrCreateReusesValidSession(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	first := s.Create()
	got, isNew := s.GetOrCreate(first.ID)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, got.ID)
}

func TestGetOrCreateWithEmptyID(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	sess, isNew := s.GetOrCreate("")
	assert.True(t, isNew)
	assert.NotEmpty(t, sess.ID)
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	s, clock := newTestStore(60 * time.Minute)

	sess := s.Create()
	clock.advance(61 * time.Minute)

	_, ok := s.Get(sess.ID)
	assert.False(t, ok, "session past TTL must be treated as not found")

	// The expired ID must yield a brand new session.
	fresh, isNew := s.GetOrCreate(sess.ID)
	assert.True(t, isNew)
	assert.NotEqual(t, sess.ID, fresh.ID)
}

func TestTouchExtendsSessionLife(t *testing.T) {
	s, clock := newTestStore(60 * time.Minute)

	sess := s.Create()
	clock.advance(45 * time.Minute)
	s.Touch(sess.ID)
	clock.advance(45 * time.Minute)

	_, ok := s.Get(sess.ID)
	assert.True(t, ok, "touch at 45m should keep the session alive at 90m")
}

func TestAppendTurn(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	sess := s.Create()
	s.AppendTurn(sess.ID, models.Turn{Role: models.RoleUser, Content: "make it formal"})
	s.AppendTurn(sess.ID, models.Turn{Role: models.RoleAssistant, Content: "three formal outfits"})

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, models.RoleUser, got.Turns[0].Role)
	assert.Equal(t, "three formal outfits", got.Turns[1].Content)
	assert.False(t, got.Turns[0].CreatedAt.IsZero())
}

func TestGetReturnsSnapshot(t *testing.T) {
	s, _ := newTestStore(DefaultTTL)

	sess := s.Create()
	s.AppendTurn(sess.ID, models.Turn{Role: models.RoleUser, Content: "hello"})

	got, _ := s.Get(sess.ID)
	got.Turns[0].Content = "mutated"

	again, _ := s.Get(sess.ID)
	assert.Equal(t, "hello", again.Turns[0].Content)
}

func TestCleanupExpired(t *testing.T) {
	s, clock := newTestStore(60 * time.Minute)

	stale := s.Create()
	clock.advance(30 * time.Minute)
	fresh := s.Create()
	clock.advance(45 * time.Minute)

	removed := s.CleanupExpired()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Count())

	_, ok := s.Get(stale.ID)
	assert.False(t, ok)
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok)
}
