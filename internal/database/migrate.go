// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator は埋め込みSQLを適用するmigrateインスタンスを生成する。
// databaseURLはPostgreSQLの接続URLを指定する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("マイグレーションソースの作成に失敗しました: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("マイグレーターの作成に失敗しました: %w", err)
	}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用する。
// すでに最新の場合は何もせずに返る。
func RunMigrations(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("migrations already up to date")
			return nil
		}
		return fmt.Errorf("マイグレーションの適用に失敗しました: %w", err)
	}

	slog.Info("migrations applied")
	return nil
}
