package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates every table the service uses.  Statements are idempotent
// so it runs on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		name          VARCHAR(120) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'CUSTOMER',
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)    NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		revoked_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_refresh_hash (token_hash),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS cinemas (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(120) NOT NULL,
		city       VARCHAR(120) NOT NULL DEFAULT '',
		address    VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6)  NOT NULL,
		updated_at DATETIME(6)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS halls (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		cinema_id  BIGINT UNSIGNED NOT NULL,
		name       VARCHAR(120) NOT NULL,
		layout     JSON         NOT NULL,
		is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at DATETIME(6)  NOT NULL,
		updated_at DATETIME(6)  NOT NULL,
		CONSTRAINT fk_halls_cinema FOREIGN KEY (cinema_id) REFERENCES cinemas(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS movies (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		description  TEXT         NOT NULL,
		genre        VARCHAR(64)  NOT NULL DEFAULT '',
		duration_min INT          NOT NULL,
		age_rating   VARCHAR(16)  NOT NULL DEFAULT '',
		release_date DATE         NULL,
		poster_url   VARCHAR(512) NOT NULL DEFAULT '',
		created_at   DATETIME(6)  NOT NULL,
		updated_at   DATETIME(6)  NOT NULL,
		KEY idx_movies_genre (genre)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS showtimes (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id        BIGINT UNSIGNED NOT NULL,
		hall_id         BIGINT UNSIGNED NOT NULL,
		cinema_id       BIGINT UNSIGNED NOT NULL,
		starts_at       DATETIME(6) NOT NULL,
		ends_at         DATETIME(6) NOT NULL,
		price_cents     BIGINT      NOT NULL,
		total_seats     INT         NOT NULL,
		seats_available INT         NOT NULL,
		status          VARCHAR(16) NOT NULL DEFAULT 'SCHEDULED',
		created_at      DATETIME(6) NOT NULL,
		updated_at      DATETIME(6) NOT NULL,
		KEY idx_showtimes_hall_time (hall_id, starts_at),
		KEY idx_showtimes_starts (starts_at),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies(id),
		CONSTRAINT fk_showtimes_hall FOREIGN KEY (hall_id) REFERENCES halls(id),
		CONSTRAINT fk_showtimes_cinema FOREIGN KEY (cinema_id) REFERENCES cinemas(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS show_seats (
		showtime_id  BIGINT UNSIGNED NOT NULL,
		label        VARCHAR(16) NOT NULL,
		seat_row     INT         NOT NULL,
		seat_col     INT         NOT NULL,
		seat_type    VARCHAR(16) NOT NULL DEFAULT 'NORMAL',
		status       VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
		locked_by    BIGINT UNSIGNED NULL,
		locked_until DATETIME(6) NULL,
		version      INT UNSIGNED NOT NULL DEFAULT 0,
		updated_at   DATETIME(6) NOT NULL,
		PRIMARY KEY (showtime_id, label),
		KEY idx_show_seats_lock (status, locked_until),
		CONSTRAINT fk_show_seats_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS snacks (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name         VARCHAR(120) NOT NULL,
		description  TEXT         NOT NULL,
		category     VARCHAR(64)  NOT NULL DEFAULT '',
		price_cents  BIGINT       NOT NULL,
		image_url    VARCHAR(512) NOT NULL DEFAULT '',
		is_available BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at   DATETIME(6)  NOT NULL,
		updated_at   DATETIME(6)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS orders (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		code         VARCHAR(32)  NOT NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		payment_ref  VARCHAR(64)  NOT NULL,
		total_cents  BIGINT       NOT NULL,
		status       VARCHAR(16)  NOT NULL,
		created_at   DATETIME(6)  NOT NULL,
		cancelled_at DATETIME(6)  NULL,
		UNIQUE KEY uq_orders_code (code),
		UNIQUE KEY uq_orders_payment (payment_ref),
		KEY idx_orders_user (user_id),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id     BIGINT UNSIGNED NOT NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		showtime_id  BIGINT UNSIGNED NOT NULL,
		seat_labels  JSON        NOT NULL,
		adult_count  INT         NOT NULL,
		child_count  INT         NOT NULL,
		total_cents  BIGINT      NOT NULL,
		cancelled    BOOLEAN     NOT NULL DEFAULT FALSE,
		cancelled_at DATETIME(6) NULL,
		created_at   DATETIME(6) NOT NULL,
		KEY idx_bookings_user (user_id),
		CONSTRAINT fk_bookings_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		CONSTRAINT fk_bookings_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS purchases (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id     BIGINT UNSIGNED NOT NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		total_cents  BIGINT      NOT NULL,
		cancelled    BOOLEAN     NOT NULL DEFAULT FALSE,
		cancelled_at DATETIME(6) NULL,
		created_at   DATETIME(6) NOT NULL,
		UNIQUE KEY uq_purchases_order (order_id),
		CONSTRAINT fk_purchases_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS purchase_items (
		purchase_id      BIGINT UNSIGNED NOT NULL,
		snack_id         BIGINT UNSIGNED NOT NULL,
		name             VARCHAR(120) NOT NULL,
		quantity         INT          NOT NULL,
		unit_price_cents BIGINT       NOT NULL,
		PRIMARY KEY (purchase_id, snack_id),
		CONSTRAINT fk_items_purchase FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id   BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		rating     TINYINT     NOT NULL,
		comment    TEXT        NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_reviews_movie_user (movie_id, user_id),
		CONSTRAINT fk_reviews_movie FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}
