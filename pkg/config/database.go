package config

import "time"

// DatabaseConfig selects the history store: Postgres when URL is set, SQLite at HistoryPath otherwise
type DatabaseConfig struct {
	URL             string
	HistoryPath     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (dc DatabaseConfig) UsePostgres() bool {
	return dc.URL != ""
}

type RedisConfig struct {
	URL string
}

func (rc RedisConfig) Enabled() bool {
	return rc.URL != ""
}

const (
	SnapshotModeNone  = ""
	SnapshotModeLocal = "local"
	SnapshotModeS3    = "s3"
)

// SnapshotConfig controls the dump written before a reset wipes the store
type SnapshotConfig struct {
	Mode   string
	Dir    string
	Bucket string
	Prefix string
	Region string
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		HistoryPath:     getEnv("HISTORY_DB_PATH", "./data/history.db"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}
}

func loadSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Mode:   getEnv("SNAPSHOT_MODE", SnapshotModeNone),
		Dir:    getEnv("SNAPSHOT_DIR", "./snapshots"),
		Bucket: getEnv("SNAPSHOT_BUCKET", ""),
		Prefix: getEnv("SNAPSHOT_PREFIX", "memorai/"),
		Region: getEnv("AWS_REGION", "us-east-1"),
	}
}
