// Package config は環境変数からのアプリケーション設定の読み込みを提供します。
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DBConfig はデータベースバックエンドの設定です。
// Driverで埋め込み(sqlite)とクライアントサーバ(postgres)を切り替えます。
type DBConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./marketdata.db"`

	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"marketdata"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RunMigrations bool `envconfig:"RUN_MIGRATIONS" default:"true"`
}

// RedisConfig はクエリキャッシュ用Redisの設定です。Hostが空の場合キャッシュは無効です。
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST"`
	Port     string        `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	// TTL はキャッシュエントリの有効期間です。0の場合は次の市場オープンまで保持します。
	TTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// AppConfig はシステム全体の設定です。
type AppConfig struct {
	Port  string `envconfig:"PORT" default:"8080"`
	DB    DBConfig
	Redis RedisConfig

	// SourceRateLimit は外部データソースへの1分あたりの呼び出し上限です。
	// ソース側に公開されたリミット契約がないため、保守的に自己抑制します。
	SourceRateLimit int `envconfig:"SOURCE_RATE_LIMIT" default:"8"`

	// SyncIntervals はバッチ同期の対象となる時間足のリストです。
	SyncIntervals []string `envconfig:"SYNC_INTERVALS" default:"1day,1week,1month"`

	// SyncTimeout はバッチ同期1回全体のタイムアウトです。
	SyncTimeout time.Duration `envconfig:"SYNC_TIMEOUT" default:"5m"`
}

// Load は環境変数から設定を自動でマッピングして返します。
// .envファイルがあれば先に読み込みます（存在しない環境もあるためエラーは無視）。
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
