package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// StoredToken is the single persisted bearer-token slot. The table never
// holds more than one row; writers replace the whole row in one tx.
type StoredToken struct {
	bun.BaseModel `bun:"table:stored_tokens"`

	ID               int64  `bun:"id,pk"`
	Token            string `bun:"token,notnull"`
	UpdatedAtUnixUTC int64  `bun:"updated_at,notnull"`
}

const storedTokenRowID = 1

// Replace the persisted token atomically.
func SaveToken(ctx context.Context, db *bun.DB, token string) error {
	if token == "" {
		return fmt.Errorf("SaveToken: token is empty")
	}

	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.
			NewDelete().
			Model((*StoredToken)(nil)).
			Where("id = ?", storedTokenRowID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.
			NewInsert().
			Model(&StoredToken{
				ID:               storedTokenRowID,
				Token:            token,
				UpdatedAtUnixUTC: time.Now().UTC().Unix(),
			}).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return fmt.Errorf("SaveToken: %w", err)
	}

	return nil
}

// Read the persisted token. An empty string means no token is stored.
func LoadToken(ctx context.Context, db *bun.DB) (string, error) {
	exists, err := db.
		NewSelect().
		Model((*StoredToken)(nil)).
		Where("id = ?", storedTokenRowID).
		Exists(ctx)
	switch {
	case err != nil:
		return "", fmt.Errorf("LoadToken: %w", err)
	case !exists:
		return "", nil
	}

	storedTokenModel := new(StoredToken)
	if err := db.
		NewSelect().
		Model(storedTokenModel).
		Where("id = ?", storedTokenRowID).
		Scan(ctx); err != nil {
		return "", fmt.Errorf("LoadToken: %w", err)
	}

	return storedTokenModel.Token, nil
}

func ClearToken(ctx context.Context, db *bun.DB) error {
	if _, err := db.
		NewDelete().
		Model((*StoredToken)(nil)).
		Where("id = ?", storedTokenRowID).
		Exec(ctx); err != nil {
		return fmt.Errorf("ClearToken: %w", err)
	}
	return nil
}
