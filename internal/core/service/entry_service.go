package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aijournal/journal-api/internal/core/domain"
	"github.com/aijournal/journal-api/internal/core/ports"
	"github.com/aijournal/journal-api/pkg/metrics"
)

// EntryService implements owner-scoped CRUD over journal entries. Every
// mutation runs its whole read-modify-write inside the entries critical
// section; reads are not serialized.
type EntryService struct {
	entries    ports.Collection[domain.Entry]
	serializer ports.WriteSerializer
	idem       ports.IdempotencyStore
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEntryService wires the service. idem may be nil, which disables
// idempotent creation.
func NewEntryService(
	entries ports.Collection[domain.Entry],
	serializer ports.WriteSerializer,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
) *EntryService {
	return &EntryService{
		entries:    entries,
		serializer: serializer,
		idem:       idem,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *EntryService) WithClock(now func() time.Time) *EntryService {
	s.now = now
	return s
}

func requireText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	return text, nil
}

func requireAuth(auth domain.AuthContext) error {
	if auth.IsZero() {
		return domain.ErrTokenMissing
	}
	return nil
}

// List returns the caller's entries, newest first.
func (s *EntryService) List(ctx context.Context, auth domain.AuthContext) ([]domain.Entry, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	snap, err := s.entries.Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.EntriesOwnedBy(snap.Records, auth.PrincipalID), nil
}

// Get returns one of the caller's entries.
func (s *EntryService) Get(ctx context.Context, auth domain.AuthContext, id int64) (*domain.Entry, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	snap, err := s.entries.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := domain.IndexOwnedEntry(snap.Records, id, auth.PrincipalID)
	if i < 0 {
		return nil, domain.ErrEntryNotFound
	}
	e := snap.Records[i]
	return &e, nil
}

// Add creates an entry owned by the caller. With an idempotency key that
// already produced an entry still owned by the caller, that entry is
// returned and nothing is written.
func (s *EntryService) Add(ctx context.Context, auth domain.AuthContext, input ports.AddEntryInput) (*ports.AddEntryResult, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	text, err := requireText(input.Text)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(input.IdempotencyKey)

	var result ports.AddEntryResult
	err = s.serializer.WithExclusiveAccess(ctx, domain.CollectionEntries, func(ctx context.Context) error {
		snap, err := s.entries.Load(ctx)
		if err != nil {
			return err
		}

		if prev, ok := s.replay(ctx, auth.PrincipalID, key, snap.Records); ok {
			result = ports.AddEntryResult{Entry: prev, Replayed: true}
			return nil
		}

		now := s.now().UTC()
		entry := domain.Entry{
			ID:        snap.NextID(),
			OwnerID:   auth.PrincipalID,
			Text:      text,
			CreatedAt: now,
		}
		snap.Records = append(snap.Records, entry)
		if err := s.entries.Save(ctx, snap); err != nil {
			return err
		}
		result = ports.AddEntryResult{Entry: entry}

		if key != "" && s.idem != nil {
			if err := s.idem.Remember(ctx, auth.PrincipalID, key, entry.ID); err != nil {
				s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency key not stored")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		metrics.EntryMutationsTotal.WithLabelValues("replay").Inc()
		s.logger.Info().Str("idempotency_key", key).Int64("entry_id", result.Entry.ID).Msg("idempotent replay")
	} else {
		metrics.EntryMutationsTotal.WithLabelValues("add").Inc()
	}
	return &result, nil
}

// replay resolves a previously used idempotency key. Cache failures are
// logged and treated as a miss.
func (s *EntryService) replay(ctx context.Context, principalID int64, key string, entries []domain.Entry) (domain.Entry, bool) {
	if key == "" || s.idem == nil {
		return domain.Entry{}, false
	}
	id, found, err := s.idem.Lookup(ctx, principalID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		return domain.Entry{}, false
	}
	if !found {
		return domain.Entry{}, false
	}
	i := domain.IndexOwnedEntry(entries, id, principalID)
	if i < 0 {
		// The original entry was deleted since; create a new one.
		return domain.Entry{}, false
	}
	return entries[i], true
}

// Update replaces the text of one of the caller's entries.
func (s *EntryService) Update(ctx context.Context, auth domain.AuthContext, id int64, text string) (*domain.Entry, error) {
	if err := requireAuth(auth); err != nil {
		return nil, err
	}
	text, err := requireText(text)
	if err != nil {
		return nil, err
	}

	var updated domain.Entry
	err = s.serializer.WithExclusiveAccess(ctx, domain.CollectionEntries, func(ctx context.Context) error {
		snap, err := s.entries.Load(ctx)
		if err != nil {
			return err
		}
		i := domain.IndexOwnedEntry(snap.Records, id, auth.PrincipalID)
		if i < 0 {
			return domain.ErrEntryNotFound
		}
		snap.Records[i].Text = text
		snap.Records[i].UpdatedAt = s.now().UTC()
		updated = snap.Records[i]
		return s.entries.Save(ctx, snap)
	})
	if err != nil {
		return nil, err
	}

	metrics.EntryMutationsTotal.WithLabelValues("update").Inc()
	return &updated, nil
}

// Remove deletes one of the caller's entries.
func (s *EntryService) Remove(ctx context.Context, auth domain.AuthContext, id int64) error {
	if err := requireAuth(auth); err != nil {
		return err
	}

	err := s.serializer.WithExclusiveAccess(ctx, domain.CollectionEntries, func(ctx context.Context) error {
		snap, err := s.entries.Load(ctx)
		if err != nil {
			return err
		}
		i := domain.IndexOwnedEntry(snap.Records, id, auth.PrincipalID)
		if i < 0 {
			return domain.ErrEntryNotFound
		}
		snap.Records = append(snap.Records[:i], snap.Records[i+1:]...)
		return s.entries.Save(ctx, snap)
	})
	if err != nil {
		return err
	}

	metrics.EntryMutationsTotal.WithLabelValues("remove").Inc()
	return nil
}

var _ ports.EntryService = (*EntryService)(nil)
