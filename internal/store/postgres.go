package store

import (
	"context"
	"errors"
	"time"

	"chatcord-server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func (s *PostgresUserStore) Create(ctx context.Context, username, passwordHash string) (*Account, error) {
	acc := Account{Username: username, PasswordHash: passwordHash}
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING created_at, last_seen`
	err := s.pool.QueryRow(ctx, query, username, passwordHash).Scan(&acc.CreatedAt, &acc.LastSeen)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return &acc, nil
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	var acc Account
	query := `SELECT username, password_hash, created_at, last_seen FROM users WHERE username = $1`
	err := s.pool.QueryRow(ctx, query, username).Scan(&acc.Username, &acc.PasswordHash, &acc.CreatedAt, &acc.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *PostgresUserStore) UpdateLastSeen(ctx context.Context, username string, at time.Time, online bool) error {
	query := `UPDATE users SET last_seen = $2, online = $3 WHERE username = $1`
	_, err := s.pool.Exec(ctx, query, username, at, online)
	return err
}

type PostgresRoomStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRoomStore(pool *pgxpool.Pool) *PostgresRoomStore {
	return &PostgresRoomStore{pool: pool}
}

func (s *PostgresRoomStore) Upsert(ctx context.Context, room models.Room) error {
	query := `INSERT INTO rooms (name, is_private) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	_, err := s.pool.Exec(ctx, query, room.Name, room.IsPrivate)
	return err
}

func (s *PostgresRoomStore) Delete(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE name = $1`, name)
	return err
}

func (s *PostgresRoomStore) List(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, is_private FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.Name, &r.IsPrivate); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

type PostgresMessageStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageStore(pool *pgxpool.Pool) *PostgresMessageStore {
	return &PostgresMessageStore{pool: pool}
}

func (s *PostgresMessageStore) Append(ctx context.Context, msg *models.Message) error {
	query := `INSERT INTO messages (room, author, text, kind) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return s.pool.QueryRow(ctx, query, msg.Room, msg.Author, msg.Text, msg.Kind).Scan(&msg.ID, &msg.CreatedAt)
}

func (s *PostgresMessageStore) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	query := `SELECT id, room, author, text, kind, created_at FROM messages WHERE room = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Author, &msg.Text, &msg.Kind, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *PostgresMessageStore) PurgeRoom(ctx context.Context, room string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE room = $1`, room)
	return err
}
