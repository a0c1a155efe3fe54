package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agora-express/internal/config"
	"agora-express/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	dbConfig := config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		// Try with connection string directly
		poolConfig, parseErr := pgxpool.ParseConfig(connStr)
		if parseErr != nil {
			t.Fatalf("failed to parse connection string: %v", parseErr)
		}
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			t.Fatalf("failed to create connection pool: %v", err)
		}
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(20) NOT NULL UNIQUE,
			email VARCHAR(255),
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			coin_balance INTEGER NOT NULL DEFAULT 0 CHECK (coin_balance >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS menu_items (
			id UUID PRIMARY KEY,
			category_id UUID NOT NULL REFERENCES categories(id),
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DECIMAL(10, 2) NOT NULL CHECK (price >= 0),
			image_url TEXT NOT NULL DEFAULT '',
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			total DECIMAL(10, 2) NOT NULL CHECK (total >= 0),
			status VARCHAR(20) NOT NULL DEFAULT 'new',
			address TEXT NOT NULL,
			phone VARCHAR(20) NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_ref VARCHAR(100),
			used_coins INTEGER NOT NULL DEFAULT 0 CHECK (used_coins >= 0),
			earned_coins INTEGER NOT NULL DEFAULT 0 CHECK (earned_coins >= 0),
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			menu_item_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			unit_price DECIMAL(10, 2) NOT NULL CHECK (unit_price >= 0),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			customizations TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS order_status_history (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			from_status VARCHAR(20) NOT NULL,
			to_status VARCHAR(20) NOT NULL,
			changed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS coin_transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			order_id UUID REFERENCES orders(id),
			direction VARCHAR(10) NOT NULL,
			used_coins INTEGER NOT NULL DEFAULT 0 CHECK (used_coins >= 0),
			earned_coins INTEGER NOT NULL DEFAULT 0 CHECK (earned_coins >= 0),
			balance INTEGER NOT NULL CHECK (balance >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS stamp_cards (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			card_number VARCHAR(7) NOT NULL UNIQUE,
			total_stamps INTEGER NOT NULL CHECK (total_stamps > 0),
			collected_stamps INTEGER NOT NULL DEFAULT 0 CHECK (collected_stamps >= 0),
			reward_stages TEXT NOT NULL DEFAULT '[]',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMP NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS gifts (
			id UUID PRIMARY KEY,
			code VARCHAR(50) NOT NULL UNIQUE,
			title VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS user_gifts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			gift_id UUID NOT NULL REFERENCES gifts(id),
			used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_menu_items_category_id ON menu_items(category_id);
		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
		CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_status_history_order_id ON order_status_history(order_id);
		CREATE INDEX IF NOT EXISTS idx_coin_transactions_user_id ON coin_transactions(user_id);
		CREATE INDEX IF NOT EXISTS idx_stamp_cards_user_id ON stamp_cards(user_id);
		CREATE INDEX IF NOT EXISTS idx_user_gifts_user_id ON user_gifts(user_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedUser inserts a user with the given role and coin balance. The password
// for every seeded user is "secret123".
func SeedUser(t *testing.T, pool *pgxpool.Pool, name, phone, role string, coins int) uuid.UUID {
	t.Helper()

	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, phone, password_hash, role, coin_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		id, name, phone, string(hash), role, coins,
	)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", phone, err)
	}

	return id
}

// SeedMenu inserts one category and a handful of menu items, returning the
// item ids in insertion order.
func SeedMenu(t *testing.T, pool *pgxpool.Pool) []uuid.UUID {
	t.Helper()

	ctx := context.Background()

	categoryID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO categories (id, name, position) VALUES ($1, $2, $3)`,
		categoryID, "Mains", 1,
	)
	if err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	items := []struct {
		name  string
		price float64
	}{
		{"Souvlaki Wrap", 12.50},
		{"Greek Salad", 9.00},
		{"Moussaka", 15.00},
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		id := uuid.New()
		_, err := pool.Exec(ctx,
			`INSERT INTO menu_items (id, category_id, name, price, available, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())`,
			id, categoryID, item.name, item.price,
		)
		if err != nil {
			t.Fatalf("failed to seed menu item %s: %v", item.name, err)
		}
		ids = append(ids, id)
	}

	return ids
}

// SeedGift inserts an active gift and returns its id.
func SeedGift(t *testing.T, pool *pgxpool.Pool, code, title string, expiresAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO gifts (id, code, title, active, expires_at, created_at)
		 VALUES ($1, $2, $3, TRUE, $4, NOW())`,
		id, code, title, expiresAt,
	)
	if err != nil {
		t.Fatalf("failed to seed gift %s: %v", code, err)
	}

	return id
}

// SeedStampCard inserts an active stamp card and returns its id.
func SeedStampCard(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, cardNumber string, collected, total int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	stages := `[{"stamps":4,"reward":"Free coffee"},{"stamps":8,"reward":"Free dessert"}]`
	_, err := pool.Exec(context.Background(),
		`INSERT INTO stamp_cards (id, user_id, card_number, total_stamps, collected_stamps,
			reward_stages, active, expires_at, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW() + INTERVAL '180 days', 1, NOW())`,
		id, userID, cardNumber, total, collected, stages,
	)
	if err != nil {
		t.Fatalf("failed to seed stamp card %s: %v", cardNumber, err)
	}

	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"user_gifts", "gifts", "stamp_cards", "coin_transactions",
		"order_status_history", "order_items", "orders",
		"menu_items", "categories", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// stampCardRow reads the mutable columns of a stamp card for assertions.
func stampCardRow(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) (collected, version int) {
	t.Helper()

	err := pool.QueryRow(context.Background(),
		`SELECT collected_stamps, version FROM stamp_cards WHERE id = $1`, id,
	).Scan(&collected, &version)
	if err != nil {
		t.Fatalf("failed to read stamp card: %v", err)
	}
	return collected, version
}
