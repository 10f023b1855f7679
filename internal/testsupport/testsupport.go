// Package testsupport holds shared helpers for inkwell's test suites: named
// in-memory databases, seeded fixtures and a minimal server with all routes
// mounted.
package testsupport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inkwell/internal"
	"inkwell/internal/config"
	"inkwell/internal/posts"
	"inkwell/internal/subscribers"
	"inkwell/internal/users"
	"inkwell/internal/views"
)

// SessionCookieName matches the cookie name mounted in routes.go:
// cfg.AppName + "_session"
const SessionCookieName = "inkwell_session"

// testDBCache caches test databases by root test name so setup helpers
// called from subtests share the same database.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with inkwell's interface.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager.
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&users.User{},
		&posts.Post{},
		&posts.Comment{},
		&posts.Like{},
		&subscribers.Subscriber{},
		&views.ViewEvent{},
	}
}

// SetupTestDB creates a test database with all inkwell models migrated. Uses
// a named in-memory database with cache=shared so multiple connections within
// the same test see the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager plus a quiet logger.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()
	if cfg.Environment != config.Test {
		t.Fatalf("Tests must run in the test environment, current: %s. Set INKWELL_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables clears every non-system table in the database.
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}
	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateTestUser creates a user, reusing an existing one with the same email.
func CreateTestUser(db *gorm.DB, email string) users.User {
	var user users.User
	if db.Where("email = ?", email).First(&user).Error == nil {
		return user
	}

	user = users.User{
		Email:             email,
		EncryptedPassword: "not-a-real-hash",
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	db.Create(&user)
	return user
}

// CreateTestUserForAuth creates a user with a real bcrypt hash for login tests.
func CreateTestUserForAuth(t *testing.T, db *gorm.DB, email, password string, admin bool) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &users.User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		Admin:             admin,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestPost creates a published post owned by the given user.
func CreateTestPost(t *testing.T, db *gorm.DB, userID uint, title, slug string) *posts.Post {
	t.Helper()

	post := &posts.Post{
		UserID:    userID,
		Title:     title,
		Slug:      slug,
		Status:    posts.StatusPublished,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateTestViewEvent stores a view event for a post at the given time. The
// identity fields default to a distinct IP-only visitor per call unless an
// identity is provided.
func CreateTestViewEvent(t *testing.T, db *gorm.DB, postID uint, identity views.Identity, occurredAt time.Time) *views.ViewEvent {
	t.Helper()

	event := &views.ViewEvent{
		PostID:           postID,
		ActorKey:         identity.ActorKey(),
		SessionID:        identity.SessionID,
		IPAddress:        identity.IPAddress,
		ReferrerHostname: views.DirectOrUnknownReferrer,
		Country:          views.UnknownCountry,
		DeviceType:       views.UnknownDevice,
		Browser:          views.UnknownBrowser,
		OS:               views.UnknownOS,
		OccurredAt:       occurredAt,
		CreatedAt:        time.Now().UTC(),
	}
	if identity.UserID > 0 {
		event.UserID.Int64 = int64(identity.UserID)
		event.UserID.Valid = true
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// SeedViews stores count view events for a post, each from a distinct
// IP-only visitor, all at the given time.
func SeedViews(t *testing.T, db *gorm.DB, postID uint, count int, occurredAt time.Time) {
	t.Helper()

	for i := 0; i < count; i++ {
		identity := views.Identity{IPAddress: fmt.Sprintf("203.0.113.%d", i+1)}
		CreateTestViewEvent(t, db, postID, identity, occurredAt)
	}
}

// GetLogger returns a test logger that only reports errors.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Tests issue plain httptest requests without browser fetch metadata
	// headers, so the Sec-Fetch-Site check stays off here.
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// LoginTestUser logs a user in through the JSON login endpoint and returns
// the session cookie value.
func LoginTestUser(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sessionValue string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName {
			sessionValue = cookie.Value
			break
		}
	}
	require.NotEmpty(t, sessionValue)
	return sessionValue
}
