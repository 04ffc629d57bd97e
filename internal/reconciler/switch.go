package reconciler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/localcache"
)

// RestartFunc reinitializes the widget client against the freshly seeded
// cache. The contract is reinitialize-by-reload: discard all in-memory
// widget state and rebuild from the seeded record. It receives the resume
// path embedding the target session's external ID.
type RestartFunc func(resumePath string) error

// Switcher resumes a previously stored session, replacing whatever the
// widget currently holds.
type Switcher struct {
	cache            *localcache.Store
	defaultProjectID string
	restart          RestartFunc
	logger           *slog.Logger
}

// NewSwitcher creates a session switcher.
func NewSwitcher(cache *localcache.Store, defaultProjectID string, restart RestartFunc, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switcher{
		cache:            cache,
		defaultProjectID: defaultProjectID,
		restart:          restart,
		logger:           logger,
	}
}

// SwitchTo clears every cache entry under the prefix, seeds the chosen
// record's value, and triggers the restart hook. The full clear matters: the
// widget keys its storage by project, and a stale entry under another
// project would be picked up instead of the seeded one.
func (s *Switcher) SwitchTo(sessionID string, rec api.SessionRecord) error {
	if sessionID == "" {
		return errors.New("session ID must not be empty")
	}
	if len(rec.Value) == 0 {
		return errors.New("session record has no stored value")
	}

	cleared, err := s.cache.ClearPrefix()
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	projectID := rec.ProjectID
	if projectID == "" {
		projectID = s.defaultProjectID
	}

	if err := s.cache.Set(s.cache.Key(projectID), string(rec.Value)); err != nil {
		return fmt.Errorf("seeding cache: %w", err)
	}

	s.logger.Info("switched session",
		"external_session_id", sessionID,
		"project_id", projectID,
		"cleared_entries", cleared)

	if s.restart == nil {
		return nil
	}
	return s.restart("/sessions/" + url.PathEscape(sessionID))
}
