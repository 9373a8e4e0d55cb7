package dao

import (
	"context"
	"errors"

	"medicare/medicare/sources/psql/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("session not found or forbidden")

type TranscriptDAO struct {
	DB *pgxpool.Pool
}

func NewTranscriptDAO(db *pgxpool.Pool) *TranscriptDAO {
	return &TranscriptDAO{DB: db}
}

func (dao *TranscriptDAO) SaveMessage(ctx context.Context, sessionID string, userID int, role, content string, sequence int) (*models.TranscriptMessage, error) {
	query := `INSERT INTO transcript_messages (id, session_id, user_id, role, content, sequence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, session_id, user_id, role, content, sequence, timestamp`
	row := dao.DB.QueryRow(ctx, query, uuid.New().String(), sessionID, userID, role, content, sequence)
	var msg models.TranscriptMessage
	err := row.Scan(&msg.ID, &msg.SessionID, &msg.UserID, &msg.Role, &msg.Content, &msg.Sequence, &msg.Timestamp)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (dao *TranscriptDAO) GetBySession(ctx context.Context, userID int, sessionID string) ([]models.TranscriptMessage, error) {
	query := `SELECT id, session_id, user_id, role, content, sequence, timestamp
		FROM transcript_messages
		WHERE session_id = $1 AND user_id = $2
		ORDER BY timestamp ASC, sequence ASC`
	rows, err := dao.DB.Query(ctx, query, sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []models.TranscriptMessage
	for rows.Next() {
		var msg models.TranscriptMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.UserID, &msg.Role, &msg.Content, &msg.Sequence, &msg.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, msg)
	}
	return history, rows.Err()
}

func (dao *TranscriptDAO) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	tag, err := dao.DB.Exec(ctx,
		"DELETE FROM transcript_messages WHERE session_id = $1 AND user_id = $2",
		sessionID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
