package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "travelbooking/internal/config"
	"travelbooking/internal/domain/models"
)

// SettingsRepository stores runtime configuration in app_config.
type SettingsRepository struct {
	DB *sql.DB
}

func (r SettingsRepository) db() (*sql.DB, error) {
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, ErrNoDB
}

func (r SettingsRepository) All(ctx context.Context) ([]models.Setting, error) {
	conn, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, `
		SELECT config_key, COALESCE(config_value,''), config_type, category, updated_at
		FROM app_config
		ORDER BY category, config_key`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	out := []models.Setting{}
	for rows.Next() {
		var s models.Setting
		var typ string
		if err := rows.Scan(&s.Key, &s.Value, &typ, &s.Category, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Type = models.SettingType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertMany writes all settings in one transaction.
func (r SettingsRepository) UpsertMany(ctx context.Context, settings []models.Setting) error {
	if len(settings) == 0 {
		return nil
	}
	conn, err := r.db()
	if err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO app_config (config_key, config_value, config_type, category)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			config_value = VALUES(config_value),
			config_type = VALUES(config_type),
			category = VALUES(category)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range settings {
		if _, err := stmt.ExecContext(ctx, s.Key, s.Value, string(s.Type), s.Category); err != nil {
			return fmt.Errorf("save setting %s: %w", s.Key, err)
		}
	}
	return tx.Commit()
}
