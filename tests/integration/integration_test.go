//go:build integration

// Package integration exercises the Postgres storage layer and the full cart
// pricing flow against a real database started with testcontainers.
package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/storage/postgres"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "commerce",
				"POSTGRES_PASSWORD": "commerce",
				"POSTGRES_DB":       "commerce",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://commerce:commerce@%s:%s/commerce?sslmode=disable",
		host, port.Port(),
	)

	pool, err = postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := seedCurrencies(ctx); err != nil {
		log.Fatalf("seed currencies: %v", err)
	}

	return m.Run()
}

// seedCurrencies inserts the currencies the tests price in.
func seedCurrencies(ctx context.Context) error {
	repo := postgres.NewCurrencyRepository(pool)
	for _, c := range []currency.Currency{
		{Code: "USD", NumericCode: "840", Symbol: "$", FractionDigits: 2},
		{Code: "EUR", NumericCode: "978", Symbol: "€", FractionDigits: 2},
		{Code: "JPY", NumericCode: "392", Symbol: "¥", FractionDigits: 0},
	} {
		if err := repo.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
