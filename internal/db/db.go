// internal/db/db.go
package db

import (
    "database/sql"
    _ "github.com/lib/pq"
    "log"

    "github.com/unclebandit/genesys-campaign-sync/internal/config"
)

var DB *sql.DB

func Init(cfg config.DBConfig) {
    log.Println("DB_USER:", cfg.User)
    log.Println("DB_NAME:", cfg.Name)
    log.Println("DB_HOST:", cfg.Host)

    var err error
    DB, err = sql.Open("postgres", cfg.DSN())
    if err != nil {
        log.Fatalf("failed to connect to DB: %v", err)
    }

    if err = DB.Ping(); err != nil {
        log.Fatalf("failed to ping DB: %v", err)
    }

    log.Println("✅ Connected to database")
}
