// Package attemptcache persists a record of past merge attempts (method
// used, conflict mass, timestamp) keyed by the file and revision hashes
// involved, so that repeated merges of the same conflict can be recognized
// and so operators can audit how often the structured merge wins over the
// line-based fallback. Connects over a plain sqlite file by default, or a
// libsql/Turso URL when one is configured.
package attemptcache

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	glebsqlite "github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Attempt is one recorded merge attempt.
type Attempt struct {
	ID           uint   `gorm:"primaryKey"`
	FilePath     string `gorm:"index"`
	BaseHash     string `gorm:"index"`
	LeftHash     string
	RightHash    string
	Method       string
	HasConflict  bool
	ConflictMass int
	// Details holds free-form per-attempt metadata (e.g. which commutative
	// parents triggered a signature fallback) as a JSON blob, so the schema
	// doesn't need to grow a column for every new diagnostic.
	Details   datatypes.JSON
	CreatedAt time.Time
}

// Cache wraps a gorm connection to the attempt-history store.
type Cache struct {
	db        *gorm.DB
	retention int
}

// Open connects to the attempt cache at dsn (a sqlite file path, or an
// http(s)/libsql URL for a remote Turso database), running migrations, and
// keeping at most `retention` attempts per file.
func Open(dsn string, retention int, debug bool) (*Cache, error) {
	if !isURL(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("attemptcache: create directory: %w", err)
			}
		}
	}

	gcfg := &gorm.Config{}
	if debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("MERGO_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("attemptcache: libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn})
	} else {
		// Local files use the pure-Go glebarez/sqlite driver, avoiding a cgo
		// dependency for the common case; gorm.io/driver/sqlite is reserved
		// for fronting the libsql connection above, since glebarez/sqlite
		// has no equivalent custom-DriverName hook.
		dialector = glebsqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("attemptcache: connect: %w", err)
	}

	if err := db.AutoMigrate(&Attempt{}); err != nil {
		return nil, fmt.Errorf("attemptcache: migrate: %w", err)
	}

	if retention <= 0 {
		retention = 20
	}
	return &Cache{db: db, retention: retention}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql")
}

// Record stores a new attempt and prunes the oldest entries for filePath
// beyond the retention limit.
func (c *Cache) Record(a Attempt) error {
	if err := c.db.Create(&a).Error; err != nil {
		return fmt.Errorf("attemptcache: record: %w", err)
	}
	return c.prune(a.FilePath)
}

func (c *Cache) prune(filePath string) error {
	var count int64
	if err := c.db.Model(&Attempt{}).Where("file_path = ?", filePath).Count(&count).Error; err != nil {
		return err
	}
	if int(count) <= c.retention {
		return nil
	}
	var stale []Attempt
	if err := c.db.Where("file_path = ?", filePath).
		Order("created_at asc").
		Limit(int(count) - c.retention).
		Find(&stale).Error; err != nil {
		return err
	}
	for _, s := range stale {
		if err := c.db.Delete(&s).Error; err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the most recent attempts recorded for filePath, most
// recent first.
func (c *Cache) Recent(filePath string, limit int) ([]Attempt, error) {
	var out []Attempt
	err := c.db.Where("file_path = ?", filePath).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
