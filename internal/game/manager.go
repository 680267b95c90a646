package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/greenside/backend/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// GameManager owns the live session registry and the course catalog. Courses
// come from the database when one is configured, with the embedded defaults
// as fallback; session snapshots are mirrored to Redis for reconnects across
// instances.
type GameManager struct {
	mu       sync.RWMutex
	sessions map[string]*GolfSession // token -> session

	db  *sqlx.DB
	rdb *redis.Client
	cfg *config.Config
}

var (
	// Manager is the process-wide game manager, set by InitializeManager.
	Manager *GameManager

	ErrSessionNotFound = errors.New("session not found")
	ErrCourseNotFound  = errors.New("course not found")
)

// InitializeManager creates the global manager. db and rdb may be nil in
// tests; the manager degrades to embedded courses and no snapshot mirror.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewGameManager(db, rdb, cfg)
	log.Println("[MANAGER] game manager initialized")
}

func NewGameManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *GameManager {
	return &GameManager{
		sessions: make(map[string]*GolfSession),
		db:       db,
		rdb:      rdb,
		cfg:      cfg,
	}
}

// TuningFromConfig maps deploy-time settings onto gameplay tuning.
func TuningFromConfig(cfg *config.Config) Tuning {
	t := DefaultTuning()
	if cfg == nil {
		return t
	}
	if cfg.PowerMultiplier > 0 {
		t.PowerMultiplier = cfg.PowerMultiplier
	}
	if cfg.MaxBouncesPerShot > 0 {
		t.MaxBounces = cfg.MaxBouncesPerShot
	}
	if cfg.BounceCooldownMS > 0 {
		t.BounceCooldown = time.Duration(cfg.BounceCooldownMS) * time.Millisecond
	}
	if cfg.ResolverPollMS > 0 {
		t.PollInterval = time.Duration(cfg.ResolverPollMS) * time.Millisecond
	}
	if cfg.RestitutionScale > 0 {
		t.RestitutionScale = cfg.RestitutionScale
	}
	return t
}

func generateToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		log.Printf("[MANAGER] token generation fallback: %v", err)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func generateSessionID() string {
	return "golf_" + generateToken(6)
}

// CreateSession builds and starts a session on the named course (empty name
// picks the first catalog course). ctx scopes the catalog lookup only; the
// session's own goroutines outlive the creating request and run until
// EndSession or the expiry sweep.
func (gm *GameManager) CreateSession(ctx context.Context, courseName string) (*GolfSession, error) {
	desc, err := gm.LoadCourse(ctx, courseName)
	if err != nil {
		return nil, err
	}

	expiry := time.Duration(gm.expiryMinutes()) * time.Minute
	s, err := NewGolfSession(generateSessionID(), generateToken(16), desc, TuningFromConfig(gm.cfg), expiry)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	gm.sessions[s.Token] = s
	gm.mu.Unlock()

	s.Start(context.Background())
	gm.SaveSnapshot(s)
	log.Printf("[MANAGER] session %s created on course %q", s.ID, desc.Name)
	return s, nil
}

func (gm *GameManager) expiryMinutes() int {
	if gm.cfg != nil && gm.cfg.SessionExpiryMinutes > 0 {
		return gm.cfg.SessionExpiryMinutes
	}
	return 30
}

// GetSessionByToken resolves a live session.
func (gm *GameManager) GetSessionByToken(token string) (*GolfSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// EndSession stops a session and removes it from the registry.
func (gm *GameManager) EndSession(token string) error {
	gm.mu.Lock()
	s, ok := gm.sessions[token]
	if ok {
		delete(gm.sessions, token)
	}
	gm.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Stop()
	if gm.rdb != nil {
		gm.rdb.Del(context.Background(), snapshotKey(token))
	}
	log.Printf("[MANAGER] session %s ended", s.ID)
	return nil
}

// ActiveSessionCount reports live sessions, for the health endpoint.
func (gm *GameManager) ActiveSessionCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.sessions)
}

// === Course catalog ===

type courseRow struct {
	Name       string `db:"name"`
	Par        int    `db:"par"`
	Descriptor []byte `db:"descriptor"`
}

// LoadCourse fetches a descriptor by name: database first, embedded
// defaults as fallback. Empty name selects the first embedded course. ctx
// bounds the catalog query only.
func (gm *GameManager) LoadCourse(ctx context.Context, name string) (*CourseDescriptor, error) {
	if name == "" {
		return DefaultCourses()[0], nil
	}

	if gm.db != nil {
		var row courseRow
		err := gm.db.GetContext(ctx, &row, "SELECT name, par, descriptor FROM courses WHERE name = $1", name)
		if err == nil {
			var desc CourseDescriptor
			if jsonErr := json.Unmarshal(row.Descriptor, &desc); jsonErr != nil {
				return nil, fmt.Errorf("course %q: bad descriptor: %w", name, jsonErr)
			}
			if vErr := desc.Validate(); vErr != nil {
				return nil, vErr
			}
			return &desc, nil
		}
		log.Printf("[MANAGER] course %q not in DB, trying embedded: %v", name, err)
	}

	for _, d := range DefaultCourses() {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrCourseNotFound
}

// CourseInfo is the catalog listing entry.
type CourseInfo struct {
	Name string `json:"name" db:"name"`
	Par  int    `json:"par" db:"par"`
}

// ListCourses merges the database catalog with the embedded defaults.
func (gm *GameManager) ListCourses() []CourseInfo {
	seen := make(map[string]bool)
	var out []CourseInfo

	if gm.db != nil {
		var rows []CourseInfo
		if err := gm.db.Select(&rows, "SELECT name, par FROM courses ORDER BY name"); err != nil {
			log.Printf("[MANAGER] course listing query failed: %v", err)
		} else {
			for _, r := range rows {
				seen[r.Name] = true
				out = append(out, r)
			}
		}
	}

	for _, d := range DefaultCourses() {
		if !seen[d.Name] {
			out = append(out, CourseInfo{Name: d.Name, Par: d.Par})
		}
	}
	return out
}

// === Redis snapshot mirror ===

func snapshotKey(token string) string {
	return "golf:session:" + token
}

// SaveSnapshot mirrors the published session state to Redis with the session
// expiry as TTL. Best effort: a dead Redis never blocks gameplay.
func (gm *GameManager) SaveSnapshot(s *GolfSession) {
	if gm.rdb == nil {
		return
	}
	snap := s.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[MANAGER] snapshot marshal failed for %s: %v", s.ID, err)
		return
	}
	ttl := time.Duration(gm.expiryMinutes()) * time.Minute
	if err := gm.rdb.Set(context.Background(), snapshotKey(s.Token), data, ttl).Err(); err != nil {
		log.Printf("[MANAGER] snapshot save failed for %s: %v", s.ID, err)
	}
}

// LoadSnapshot fetches a mirrored snapshot, for cross-instance state reads.
func (gm *GameManager) LoadSnapshot(token string) (*SessionSnapshot, error) {
	if gm.rdb == nil {
		return nil, errors.New("redis not configured")
	}
	data, err := gm.rdb.Get(context.Background(), snapshotKey(token)).Bytes()
	if err != nil {
		return nil, err
	}
	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// StartExpiryChecker sweeps expired sessions on a fixed interval.
func (gm *GameManager) StartExpiryChecker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gm.sweepExpired()
			}
		}
	}()
}

func (gm *GameManager) sweepExpired() {
	now := time.Now()
	gm.mu.RLock()
	var expired []string
	for token, s := range gm.sessions {
		if s.Expired(now) {
			expired = append(expired, token)
		}
	}
	gm.mu.RUnlock()

	for _, token := range expired {
		if err := gm.EndSession(token); err == nil {
			log.Printf("[MANAGER] expired session swept: %s", token)
		}
	}
}
