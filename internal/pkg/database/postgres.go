package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Drivers registrados no database/sql: "postgres" (lib/pq) e "pgx" (pgx stdlib)
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Drivers aceitos em DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// NewPostgresDB inicializa e configura o pool de conexões com o PostgreSQL.
// Retorna a conexão *sql.DB pronta para uso.
func NewPostgresDB(driver, dataSourceName string) (*sql.DB, error) {
	switch driver {
	case "":
		driver = DriverPostgres
	case DriverPostgres, DriverPgx:
	default:
		return nil, fmt.Errorf("driver de banco não suportado: %s", driver)
	}

	// 1. Abrir a Conexão
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	// 2. Testar a Conexão Imediatamente
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	// 3. Configuração do Connection Pool
	// A listagem abre duas conexões por requisição (contagem + janela em paralelo).
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}
