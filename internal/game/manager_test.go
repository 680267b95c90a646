package game

import (
	"context"
	"testing"
	"time"

	"github.com/greenside/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Manager without DB or Redis: embedded courses, no snapshot mirror.
func newTestManager() *GameManager {
	return NewGameManager(nil, nil, nil)
}

func TestLoadCourseEmptyNamePicksFirstDefault(t *testing.T) {
	gm := newTestManager()
	d, err := gm.LoadCourse(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCourses()[0].Name, d.Name)
}

func TestLoadCourseEmbeddedByName(t *testing.T) {
	gm := newTestManager()
	d, err := gm.LoadCourse(context.Background(), "switchback")
	require.NoError(t, err)
	assert.Equal(t, "switchback", d.Name)
	assert.Equal(t, 3, d.Par)
}

func TestLoadCourseUnknownName(t *testing.T) {
	gm := newTestManager()
	_, err := gm.LoadCourse(context.Background(), "no-such-course")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestListCoursesIncludesEmbedded(t *testing.T) {
	gm := newTestManager()
	courses := gm.ListCourses()

	names := make(map[string]bool)
	for _, c := range courses {
		names[c.Name] = true
	}
	for _, d := range DefaultCourses() {
		assert.True(t, names[d.Name], "embedded course %q missing from catalog", d.Name)
	}
}

func TestCreateAndEndSession(t *testing.T) {
	gm := newTestManager()

	s, err := gm.CreateSession(context.Background(), "first-green")
	require.NoError(t, err)
	require.NotEmpty(t, s.Token)
	assert.Contains(t, s.ID, "golf_")
	assert.Equal(t, 1, gm.ActiveSessionCount())

	got, err := gm.GetSessionByToken(s.Token)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, gm.EndSession(s.Token))
	assert.Equal(t, 0, gm.ActiveSessionCount())

	_, err = gm.GetSessionByToken(s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, gm.EndSession(s.Token), ErrSessionNotFound)
}

func TestCreateSessionUnknownCourse(t *testing.T) {
	gm := newTestManager()
	_, err := gm.CreateSession(context.Background(), "no-such-course")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := generateToken(16)
		assert.Len(t, tok, 32)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestTuningFromConfigOverrides(t *testing.T) {
	cfg := &config.Config{
		PowerMultiplier:   15,
		MaxBouncesPerShot: 5,
		BounceCooldownMS:  200,
		ResolverPollMS:    50,
		RestitutionScale:  1.3,
	}
	tuning := TuningFromConfig(cfg)

	assert.Equal(t, 15.0, tuning.PowerMultiplier)
	assert.Equal(t, 5, tuning.MaxBounces)
	assert.Equal(t, 200*time.Millisecond, tuning.BounceCooldown)
	assert.Equal(t, 50*time.Millisecond, tuning.PollInterval)
	assert.Equal(t, 1.3, tuning.RestitutionScale)
}

func TestTuningFromConfigZeroMeansDefault(t *testing.T) {
	assert.Equal(t, DefaultTuning(), TuningFromConfig(&config.Config{}))
	assert.Equal(t, DefaultTuning(), TuningFromConfig(nil))
}

func TestSweepExpiredEndsStaleSessions(t *testing.T) {
	gm := newTestManager()

	s, err := gm.CreateSession(context.Background(), "")
	require.NoError(t, err)
	s.mu.Lock()
	s.ExpiresAt = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	gm.sweepExpired()
	assert.Equal(t, 0, gm.ActiveSessionCount())
}

func TestSessionOutlivesCreatingContext(t *testing.T) {
	gm := newTestManager()

	ctx, cancel := context.WithCancel(context.Background())
	s, err := gm.CreateSession(ctx, "first-green")
	require.NoError(t, err)
	defer gm.EndSession(s.Token)

	// The creating request is long gone by the time the ball is struck.
	cancel()

	require.True(t, s.StartShot())
	require.True(t, s.ConfirmAngle(0))
	require.True(t, s.ConfirmPower(0.5, true))

	start := s.Snapshot().Ball.Position
	time.Sleep(300 * time.Millisecond)
	moved := s.Snapshot().Ball.Position
	assert.Greater(t, moved.X, start.X, "tick loop stopped with the request context")
}
