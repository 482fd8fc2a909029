// Package store implements the spider repository on top of gorm.
// SQLite and PostgreSQL are supported.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"spidertrigger/internal/apperrors"
	"spidertrigger/internal/spider"
	"strconv"
	"strings"
	"unicode"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the connection pool. Trigger invocations use it through
// per-invocation sessions; administrative operations use it directly.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and, if enabled, migrates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, apperrors.Validation("driver", fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	switch {
	case cfg.Driver == DriverSQLite:
		// SQLite allows one writer; in-memory databases exist per connection.
		sqlDB.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &Store{db: db}
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	slog.Info("Database opened", "driver", cfg.Driver, "autoMigrate", cfg.AutoMigrate)
	return s, nil
}

// Migrate creates or updates the spider and container tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&spiderModel{}, &containerModel{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenSession returns a repository session for a single trigger invocation.
func (s *Store) OpenSession(ctx context.Context) (spider.RepositorySession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{db: s.db.Session(&gorm.Session{NewDB: true})}, nil
}

// CreateSpider inserts a spider definition and sets its ID.
func (s *Store) CreateSpider(ctx context.Context, sp *spider.Spider) error {
	if sp.Repository == "" || sp.Tag == "" {
		return apperrors.Validation("image", "repository and tag are required")
	}
	if sp.Name == "" {
		return apperrors.Validation("name", "name is required")
	}
	for _, token := range sp.Environment {
		if token == "" || strings.IndexFunc(token, unicode.IsSpace) >= 0 {
			return apperrors.Validation("environment",
				fmt.Sprintf("environment token %q must be non-empty and contain no whitespace", token))
		}
	}

	m := fromSpider(sp)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperrors.Internal("store.createSpider", err)
	}
	sp.ID = m.ID
	sp.CreationTime = m.CreationTime
	sp.LastModificationTime = m.LastModificationTime
	return nil
}

// SetEnabled flips the enabled flag of a spider.
func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&spiderModel{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return apperrors.Internal("store.setEnabled", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("spider", strconv.FormatInt(id, 10))
	}
	return nil
}

// ListSpiders returns all spiders ordered by ID.
func (s *Store) ListSpiders(ctx context.Context) ([]spider.Spider, error) {
	var models []spiderModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Internal("store.listSpiders", err)
	}
	spiders := make([]spider.Spider, 0, len(models))
	for i := range models {
		spiders = append(spiders, *models[i].toSpider())
	}
	return spiders, nil
}

// ListContainers returns the container records of a spider, newest first.
// A non-positive limit returns all records.
func (s *Store) ListContainers(ctx context.Context, spiderID int64, limit int) ([]spider.ContainerRecord, error) {
	q := s.db.WithContext(ctx).Where("spider_id = ?", spiderID).Order("creation_time DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []containerModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperrors.Internal("store.listContainers", err)
	}
	records := make([]spider.ContainerRecord, 0, len(models))
	for i := range models {
		records = append(records, models[i].toRecord())
	}
	return records, nil
}

// Session is a spider.Repository bound to one invocation.
type Session struct {
	db     *gorm.DB
	closed bool
}

var errSessionClosed = errors.New("repository session is closed")

// FindSpider implements spider.Repository.
func (s *Session) FindSpider(ctx context.Context, id int64) (*spider.Spider, error) {
	if s.closed {
		return nil, apperrors.Internal("store.findSpider", errSessionClosed)
	}

	var m spiderModel
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("spider", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, apperrors.Internal("store.findSpider", err)
	}
	return m.toSpider(), nil
}

// AppendContainer implements spider.Repository.
func (s *Session) AppendContainer(ctx context.Context, rec *spider.ContainerRecord) (spider.RecordID, error) {
	if s.closed {
		return 0, apperrors.Internal("store.appendContainer", errSessionClosed)
	}
	if rec.ContainerID == "" {
		return 0, apperrors.Validation("containerId", "container ID is required")
	}
	if rec.Status != spider.StatusCreated {
		return 0, apperrors.Validation("status", fmt.Sprintf("new container records must be %s, got %q", spider.StatusCreated, rec.Status))
	}

	m := &containerModel{
		ContainerID:  rec.ContainerID,
		Batch:        rec.Batch,
		SpiderID:     rec.SpiderID,
		Status:       string(rec.Status),
		CreationTime: rec.CreationTime,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, apperrors.Internal("store.appendContainer", err)
	}
	rec.ID = spider.RecordID(m.ID)
	return rec.ID, nil
}

// UpdateContainerStatus implements spider.Repository. Only a Created record
// can move, and only to a terminal status.
func (s *Session) UpdateContainerStatus(ctx context.Context, id spider.RecordID, status spider.Status) error {
	if s.closed {
		return apperrors.Internal("store.updateContainerStatus", errSessionClosed)
	}
	if !spider.StatusCreated.CanTransitionTo(status) {
		return apperrors.Validation("status", fmt.Sprintf("cannot move a container record to %q", status))
	}

	res := s.db.WithContext(ctx).
		Model(&containerModel{}).
		Where("id = ? AND status = ?", int64(id), string(spider.StatusCreated)).
		Update("status", string(status))
	if res.Error != nil {
		return apperrors.Internal("store.updateContainerStatus", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var current containerModel
	err := s.db.WithContext(ctx).Select("status").First(&current, int64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("container record", strconv.FormatInt(int64(id), 10))
	}
	if err != nil {
		return apperrors.Internal("store.updateContainerStatus", err)
	}
	return apperrors.Conflict("container record", strconv.FormatInt(int64(id), 10),
		fmt.Sprintf("container record %d is already %s", id, current.Status))
}

// Close ends the session. The pool itself stays open.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

var (
	_ spider.RepositoryOpener  = (*Store)(nil)
	_ spider.RepositorySession = (*Session)(nil)
)
