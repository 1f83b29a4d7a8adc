package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`
	result, err := db.q.ExecContext(ctx, query, comment.Text, comment.ItemID, comment.AuthorID, formatTime(comment.Created))
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

// ListCommentsByItemIDs groups comments per item, oldest first, with the author name joined in.
func (db *DB) ListCommentsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*models.Comment, error) {
	out := make(map[int64][]*models.Comment, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	in, args := inClause(itemIDs)
	query := `SELECT c.id, c.text, c.item_id, c.author_id, u.name, c.created
                FROM comments c
                JOIN users u ON u.id = c.author_id
               WHERE c.item_id IN ` + in + `
               ORDER BY c.created, c.id`
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &models.Comment{}
		var created string
		if err := rows.Scan(&c.ID, &c.Text, &c.ItemID, &c.AuthorID, &c.AuthorName, &created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if c.Created, err = parseTime(created); err != nil {
			return nil, err
		}
		out[c.ItemID] = append(out[c.ItemID], c)
	}
	return out, rows.Err()
}

