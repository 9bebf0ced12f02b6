package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool はkv_entries向け接続プールのサイズ設定。
// 1リクエストあたりの読み書きはキー単位の短いクエリなので、接続は少数で足りる。
// アカウント一覧のUpdateはトランザクション中に接続を1本占有する。
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultPool はAPIサーバー用の既定値。
var DefaultPool = Pool{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
}

// WorkerPool はクリーンアップワーカー用。DELETEを定期的に1本流すだけなので最小限にする。
var WorkerPool = Pool{
	MaxOpenConns:    2,
	MaxIdleConns:    1,
	ConnMaxIdleTime: time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
}

// Open は既定のプール設定でPostgreSQL接続を開く。
func Open(databaseURL string) (*sql.DB, error) {
	return OpenPool(databaseURL, DefaultPool)
}

// OpenPool は指定したプール設定でPostgreSQL接続を開く。
// 0以下の値は既定値で補う。sql.Openは接続を試行しないため、疎通確認はPingで行う。
func OpenPool(databaseURL string, p Pool) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	p = p.withDefaults()
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)

	return db, nil
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultPool.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultPool.MaxIdleConns
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = DefaultPool.ConnMaxIdleTime
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultPool.ConnMaxLifetime
	}
	return p
}
