package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// NewPostgresDB создает новое подключение к PostgreSQL
func NewPostgresDB(dsn string, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(GormLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close закрывает пул соединений
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GormLogLevel переводит строковый уровень в уровень логгера GORM
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ResetSchema удаляет все таблицы моделей и создает их заново по текущим определениям.
// Данные теряются безвозвратно. Вызывать внутри транзакции.
func ResetSchema(tx *gorm.DB) error {
	models := entity.Models()

	// Удаляем в обратном порядке; постгресовый мигратор GORM добавляет CASCADE
	reversed := make([]interface{}, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		reversed = append(reversed, models[i])
	}
	if err := tx.Migrator().DropTable(reversed...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	if err := tx.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return MakeForeignKeysDeferrable(tx)
}

// Migrate создает недостающие таблицы, не трогая данные
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return MakeForeignKeysDeferrable(db)
}

type foreignKey struct {
	TableName      string
	ConstraintName string
}

// MakeForeignKeysDeferrable переводит внешние ключи таблиц моделей в DEFERRABLE INITIALLY IMMEDIATE.
// GORM создает их неоткладываемыми, и тогда SET CONSTRAINTS ALL DEFERRED на них не действует.
// Поведение по умолчанию не меняется: проверка по-прежнему на каждой команде.
func MakeForeignKeysDeferrable(db *gorm.DB) error {
	tables, err := modelTables(db)
	if err != nil {
		return err
	}

	var keys []foreignKey
	err = db.Raw(`
		SELECT cl.relname AS table_name, con.conname AS constraint_name
		FROM pg_constraint con
		JOIN pg_class cl ON cl.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		WHERE con.contype = 'f'
		  AND NOT con.condeferrable
		  AND ns.nspname = current_schema()
		  AND cl.relname IN ?`, tables).Scan(&keys).Error
	if err != nil {
		return fmt.Errorf("failed to list foreign keys: %w", err)
	}

	for _, fk := range keys {
		err := db.Exec("ALTER TABLE ? ALTER CONSTRAINT ? DEFERRABLE INITIALLY IMMEDIATE",
			clause.Table{Name: fk.TableName}, clause.Column{Name: fk.ConstraintName}).Error
		if err != nil {
			return fmt.Errorf("failed to make %s.%s deferrable: %w", fk.TableName, fk.ConstraintName, err)
		}
	}
	return nil
}

func modelTables(db *gorm.DB) ([]string, error) {
	models := entity.Models()
	tables := make([]string, 0, len(models))
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		tables = append(tables, stmt.Schema.Table)
	}
	return tables, nil
}
