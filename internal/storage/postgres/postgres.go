// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
)

// migrationLock is the advisory lock id held while the schema is migrated.
const migrationLock = 7301

// blob is one stored record list.
type blob struct {
	Key       string `gorm:"primaryKey;size:128"`
	Data      string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (blob) TableName() string { return "splitter_blobs" }

// Storage keeps the record lists in a single postgres table, one row per key.
type Storage struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ storage.Storage = (*Storage)(nil)

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// one CLI process, a handful of statements
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s := &Storage{db: db, logger: logger.Named("postgres-storage")}
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	var locked bool
	if err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", migrationLock).Scan(&locked).Error; err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !locked {
		return errors.New("another migration is in progress")
	}
	defer s.db.Exec("SELECT pg_advisory_unlock(?)", migrationLock)

	if err := s.db.WithContext(ctx).AutoMigrate(&blob{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Storage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	var b blob
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return []byte(b.Data), true, nil
}

// Save upserts the row for key.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&blob{Key: key, Data: string(data)}).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	s.logger.Debug("Saved records", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogger routes gorm output into zap. Slow or failing statements are logged; the rest stays at debug.
type gormLogger struct {
	zapLogger     *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(zapLogger *zap.Logger) gormlogger.Interface {
	return &gormLogger{
		zapLogger:     zapLogger,
		level:         gormlogger.Warn,
		slowThreshold: 500 * time.Millisecond,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.zapLogger.Error("Query failed", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.zapLogger.Warn("Slow query", fields...)
	default:
		l.zapLogger.Debug("Query", fields...)
	}
}
