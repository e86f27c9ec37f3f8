package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username           VARCHAR(50)  NOT NULL,
		email              VARCHAR(255) NOT NULL,
		password_hash      VARCHAR(255) NOT NULL,
		full_name          VARCHAR(100) NULL,
		role               VARCHAR(16)  NOT NULL DEFAULT 'USER',
		is_active          BOOLEAN      NOT NULL DEFAULT TRUE,
		reset_token_hash   CHAR(64)     NULL,
		reset_token_expiry DATETIME(3)  NULL,
		created_at         DATETIME     NOT NULL,
		updated_at         DATETIME     NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_reset_token (reset_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME(3)     NOT NULL,
		created_at DATETIME        NOT NULL,
		UNIQUE KEY uq_refresh_user (user_id),
		UNIQUE KEY uq_refresh_token (token_hash),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS customers (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		customer_code VARCHAR(32)  NOT NULL,
		full_name     VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		phone         VARCHAR(32)  NULL,
		address       VARCHAR(255) NULL,
		status        VARCHAR(16)  NOT NULL DEFAULT 'ACTIVE',
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_customers_code (customer_code),
		UNIQUE KEY uq_customers_email (email),
		KEY idx_customers_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
