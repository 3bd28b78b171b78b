package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/types"
)

// ErrNotFound is returned when an attachment does not exist.
var ErrNotFound = errors.New("attachment not found")

// Attachment is a stored CSB 19 file.
type Attachment struct {
	ID          int64
	Group       string
	Presenter   string
	Journal     string
	FileName    string
	Receipts    int
	Amount      string
	PaymentDate string
	Content     string
	CreatedAt   time.Time
}

// Store records generated files. It implements csb19.Attacher.
type Store struct {
	conn *Connection
}

// NewStore creates a new Store instance.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Attach stores the file text for the group and returns "sqlite:<id>".
func (s *Store) Attach(group *types.PaymentGroup, text string) (string, error) {
	query := `
		INSERT INTO attachments
			(group_ref, presenter, journal, file_name, receipts, amount, payment_date, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.conn.db.Exec(query,
		group.Reference,
		group.Presenter,
		group.Journal,
		FileName(group),
		len(group.Receipts),
		group.Total().StringFixed(2),
		group.PaymentDate.Format("2006-01-02"),
		text,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record attachment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read attachment id: %w", err)
	}
	return fmt.Sprintf("sqlite:%d", id), nil
}

// FileName is the attachment name of a group's file.
func FileName(group *types.PaymentGroup) string {
	return group.Reference + ".txt"
}

// List returns the attachments of a group, newest first. An empty group
// lists every attachment. Content is not loaded.
func (s *Store) List(group string) ([]Attachment, error) {
	query := `
		SELECT id, group_ref, presenter, journal, file_name, receipts, amount, payment_date, created_at
		FROM attachments
		WHERE (? = '' OR group_ref = ?)
		ORDER BY id DESC
	`

	rows, err := s.conn.db.Query(query, group, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(
			&a.ID,
			&a.Group,
			&a.Presenter,
			&a.Journal,
			&a.FileName,
			&a.Receipts,
			&a.Amount,
			&a.PaymentDate,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}

	return attachments, rows.Err()
}

// Get returns one attachment with its content.
func (s *Store) Get(id int64) (*Attachment, error) {
	query := `
		SELECT id, group_ref, presenter, journal, file_name, receipts, amount, payment_date, content, created_at
		FROM attachments
		WHERE id = ?
	`

	var a Attachment
	err := s.conn.db.QueryRow(query, id).Scan(
		&a.ID,
		&a.Group,
		&a.Presenter,
		&a.Journal,
		&a.FileName,
		&a.Receipts,
		&a.Amount,
		&a.PaymentDate,
		&a.Content,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &a, nil
}
