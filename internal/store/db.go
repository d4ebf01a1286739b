package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"todo-svc/internal/todo"
)

// MySQL persists the list in a single todos table ordered by position.
type MySQL struct {
	db *sql.DB
}

// New opens dsn, pings it and creates the schema when missing.
func New(ctx context.Context, dsn string) (*MySQL, error) {
	if dsn == "" {
		return nil, errors.New("store: mysql backend needs a dsn")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	s := &MySQL{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *MySQL) Close() error { return s.db.Close() }

func (s *MySQL) migrate(ctx context.Context) error {
	createTodos := `CREATE TABLE IF NOT EXISTS todos (
    id VARCHAR(64) PRIMARY KEY,
    position INT NOT NULL,
    title VARCHAR(500) NOT NULL,
    description TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    category VARCHAR(200) NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`
	_, err := s.db.ExecContext(ctx, createTodos)
	return err
}

func (s *MySQL) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, completed, category
    FROM todos ORDER BY position`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	var tasks []todo.Task
	for rows.Next() {
		var t todo.Task
		var category sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &category); err != nil {
			return Snapshot{}, err
		}
		if category.Valid {
			t.Category = category.String
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Tasks: tasks, Categories: todo.DeriveCategories(tasks)}, nil
}

// Save replaces the table contents in one transaction.
func (s *MySQL) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO todos
    (id, position, title, description, completed, category)
    VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range snap.Tasks {
		category := sql.NullString{String: t.Category, Valid: t.Category != ""}
		if _, err = stmt.ExecContext(ctx, t.ID, i, t.Title, t.Description, t.Completed, category); err != nil {
			return err
		}
	}
	return tx.Commit()
}
