package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

type SiteSettings struct {
	ID       int    `db:"id" json:"id"`
	SiteName string `db:"site_name" json:"site_name"`
	// Names or /pattern/flags entries that can never be self-registered.
	PreservedUsernames pq.StringArray `db:"preserved_usernames" json:"preserved_usernames"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

type SiteSettingsRepository struct{ db Conn }

func NewSiteSettingsRepository(db Conn) *SiteSettingsRepository {
	return &SiteSettingsRepository{db: db}
}

type SiteSettingsRepositoryInterface interface {
	Get() (*SiteSettings, error)
	PreservedUsernames(ctx context.Context) ([]string, error)
}

func (r *SiteSettingsRepository) Get() (*SiteSettings, error) {
	var s SiteSettings
	err := r.db().Get(&s, `SELECT id, site_name, preserved_usernames, updated_at FROM site_settings WHERE id = 1`)
	if err != nil {
		// Safe defaults when no settings row exists yet
		return &SiteSettings{ID: 1, SiteName: "namecheck"}, nil
	}
	return &s, nil
}

// PreservedUsernames returns the current preserved list. Unlike Get, database
// errors are returned to the caller; a missing row is an empty list.
func (r *SiteSettingsRepository) PreservedUsernames(ctx context.Context) ([]string, error) {
	var list pq.StringArray
	err := r.db().GetContext(ctx, &list, `SELECT preserved_usernames FROM site_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []string(list), nil
}
