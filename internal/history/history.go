package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Store persists the lines the user submits, one row per accepted line,
// blank lines included.
type Store struct {
	db *gorm.DB
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index;index:idx_dir_created,priority:2"`
	UpdatedAt time.Time `gorm:"index"`

	Command   string `gorm:"index"`
	Directory string `gorm:"index:idx_dir_created,priority:1"`
	SessionID string `gorm:"index"`
	ExitCode  sql.NullInt32
}

func NewStore(dbFilePath string) (*Store, error) {
	// PRAGMA settings tuned for a single-user shell on possibly networked
	// home directories:
	// - busy_timeout(5000): tolerate slow file locks
	// - synchronous(1): NORMAL mode, durability/performance balance
	// - cache_size(-20000): 20MB page cache
	// - temp_store(2): keep temp files in memory
	connectionString := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=cache_size(-20000)&_pragma=temp_store(2)", dbFilePath)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite serializes writes anyway, so multiple connections add overhead.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

// Close closes the database connection. Call it when the Store is no longer
// needed, especially in tests so temporary files can be cleaned up.
func (store *Store) Close() error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append records a submitted line. The line is stored verbatim, including
// empty lines, so the in-session history matches what the user actually
// typed.
func (store *Store) Append(command string, directory string, sessionID string) (*Entry, error) {
	entry := Entry{
		Command:   command,
		Directory: directory,
		SessionID: sessionID,
	}

	result := store.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// Finish records the exit code of the pipeline the entry started.
func (store *Store) Finish(entry *Entry, exitCode int) (*Entry, error) {
	entry.ExitCode = sql.NullInt32{Int32: int32(exitCode), Valid: true}

	result := store.db.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// Recent returns up to limit entries, oldest first, optionally filtered to a
// directory.
func (store *Store) Recent(directory string, limit int) ([]Entry, error) {
	var entries []Entry
	db := store.db
	if directory != "" {
		db = db.Where("directory = ?", directory)
	}
	result := db.Order("created_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return lo.Reverse(entries), nil
}

// All returns every entry ordered newest first.
func (store *Store) All() ([]Entry, error) {
	var entries []Entry
	result := store.db.Order("created_at desc").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (store *Store) Delete(id uint) error {
	result := store.db.Delete(&Entry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (store *Store) Reset() error {
	result := store.db.Exec("DELETE FROM entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// RecentByPrefix returns up to limit entries whose command starts with
// prefix, newest first. Used by reverse search to pre-filter candidates.
func (store *Store) RecentByPrefix(prefix string, limit int) ([]Entry, error) {
	var entries []Entry
	result := store.db.Where("command LIKE ?", prefix+"%").
		Order("created_at desc").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}
