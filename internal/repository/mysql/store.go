// Package mysql implements repository.Store on MySQL through sqlx.  Every
// repository runs its statements on a sqlx.ExtContext so the same code works
// on the connection pool and inside a transaction opened by Atomic.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// Store is the MySQL backed repository.Store.
type Store struct {
	db *sqlx.DB
	x  sqlx.ExtContext
	tx *sqlx.Tx
}

// NewStore wraps an open connection pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, x: db}
}

var _ repository.Store = (*Store)(nil)

// Atomic runs fn inside a transaction.  Nested calls reuse the outer
// transaction.
func (s *Store) Atomic(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&Store{db: s.db, x: tx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository         { return &UserRepo{x: s.x} }
func (s *Store) Tokens() repository.TokenRepository       { return &TokenRepo{x: s.x} }
func (s *Store) Cinemas() repository.CinemaRepository     { return &CinemaRepo{x: s.x} }
func (s *Store) Halls() repository.HallRepository         { return &HallRepo{x: s.x} }
func (s *Store) Movies() repository.MovieRepository       { return &MovieRepo{x: s.x} }
func (s *Store) Showtimes() repository.ShowtimeRepository { return &ShowtimeRepo{x: s.x} }
func (s *Store) Seats() repository.ShowSeatRepository     { return &ShowSeatRepo{x: s.x} }
func (s *Store) Snacks() repository.SnackRepository       { return &SnackRepo{x: s.x} }
func (s *Store) Orders() repository.OrderRepository       { return &OrderRepo{x: s.x} }
func (s *Store) Reviews() repository.ReviewRepository     { return &ReviewRepo{x: s.x} }

// MySQL error numbers the repositories translate.
const (
	errDuplicateEntry  = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	switch mysqlErrNumber(err) {
	case errDuplicateEntry, errRowIsReferenced:
		return repository.ErrConflict
	case errNoReferencedRow:
		return repository.ErrNotFound
	}
	return err
}

// mustAffect returns ErrNotFound when an UPDATE or DELETE touched no row.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insertID(res sql.Result, err error) (uint64, error) {
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// limitClause appends LIMIT/OFFSET when limit is positive.
func limitClause(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return q, args
	}
	if offset < 0 {
		offset = 0
	}
	return q + " LIMIT ? OFFSET ?", append(args, limit, offset)
}

func affected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
