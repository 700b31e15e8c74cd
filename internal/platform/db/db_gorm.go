// Package db はGORMによるデータベース接続の初期化を提供します。
package db

import (
	"fmt"
	"log"
	"time"

	gpostgres "gorm.io/driver/postgres"
	gsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketdata_backend/internal/app/config"
	"marketdata_backend/internal/feature/marketdata/adapters"
)

const (
	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
)

// Opener はDSNからgorm.DBを開く関数です。テストから差し替え可能にしています。
type Opener func(dsn string) (*gorm.DB, error)

// BuildPostgresDSN はPostgreSQL接続用のDSN文字列を生成します。
func BuildPostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// ConnectWithRetry は接続に成功するかタイムアウトするまでリトライします。
// コンテナ起動直後などDBの準備がまだ整っていないケースを吸収します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従って埋め込み(SQLite)またはクライアントサーバ(PostgreSQL)の
// バックエンドを開きます。保存セマンティクスはどちらのバックエンドでも同一で、
// 上位層はgorm.DBの向こう側の実装を区別しません。
func OpenDB(cfg config.DBConfig) *gorm.DB {
	var (
		dsn  string
		open Opener
	)
	switch cfg.Driver {
	case "postgres":
		dsn = BuildPostgresDSN(cfg)
		open = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gpostgres.Open(dsn), &gorm.Config{})
		}
	case "sqlite", "":
		dsn = cfg.SQLitePath
		open = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gsqlite.Open(dsn), &gorm.Config{})
		}
	default:
		log.Fatalf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := ConnectWithRetry(dsn, connectTimeout, open)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.RunMigrations {
		// マイグレーション（Symbol, Candle, Freshness）
		if err := db.AutoMigrate(
			&adapters.SymbolModel{},
			&adapters.CandleModel{},
			&adapters.FreshnessModel{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
