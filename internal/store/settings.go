package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Setting keys.
const (
	settingJWTSecret    = "jwt_secret"
	settingExpiryDays   = "expiry_alert_days"
	settingSoundEnabled = "alert_sound_enabled"
)

// GetSetting returns a setting value and whether it was present.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a setting value, replacing any existing one.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// EnsureJWTSecret returns the persisted JWT signing secret, generating and
// storing one on first use. INSERT OR IGNORE plus re-SELECT avoids a race
// between concurrent startups.
func EnsureJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingJWTSecret, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	secret, ok, err := GetSetting(ctx, db, settingJWTSecret)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("jwt secret missing after insert")
	}
	return secret, nil
}

// AlertSettings are the runtime-adjustable alert knobs. They are persisted
// in the settings table; values absent there fall back to the passed-in
// configuration defaults.
type AlertSettings struct {
	ExpiryDays   int  `json:"expiry_days"`
	SoundEnabled bool `json:"sound_enabled"`
}

// LoadAlertSettings reads the alert settings, filling gaps from defaults.
func LoadAlertSettings(ctx context.Context, db *sql.DB, defaults AlertSettings) (AlertSettings, error) {
	s := defaults

	if v, ok, err := GetSetting(ctx, db, settingExpiryDays); err != nil {
		return s, err
	} else if ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("parsing %s: %w", settingExpiryDays, err)
		}
		s.ExpiryDays = days
	}

	if v, ok, err := GetSetting(ctx, db, settingSoundEnabled); err != nil {
		return s, err
	} else if ok {
		s.SoundEnabled = v == "true"
	}

	return s, nil
}

// SaveAlertSettings persists the alert settings.
func SaveAlertSettings(ctx context.Context, db *sql.DB, s AlertSettings) error {
	if s.ExpiryDays < 0 {
		return &ValidationError{Field: "expiry_days", Reason: "must be non-negative"}
	}
	if err := SetSetting(ctx, db, settingExpiryDays, strconv.Itoa(s.ExpiryDays)); err != nil {
		return err
	}
	return SetSetting(ctx, db, settingSoundEnabled, strconv.FormatBool(s.SoundEnabled))
}
