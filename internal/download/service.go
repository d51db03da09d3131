package download

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/courseloop/courseloop/internal"
	itemDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/item"
	"github.com/courseloop/courseloop/internal/core/events"
)

// Service gates content access on entitlement. A verification that just
// completed may not be visible to this read path yet, so the lookup polls a
// bounded number of times before denying. The poll absorbs replication lag
// only; it is not a substitute for the reconciler's guarantees.
type Service struct {
	items     ItemProvider
	purchases PurchaseChecker
	bus       *events.EventBus
	logger    *slog.Logger

	pollAttempts int
	pollDelay    time.Duration
	sleep        func(time.Duration)
}

// PollConfig tunes how long the gate waits for a fresh verification to
// become visible. Zero values fall back to 5 attempts at 500ms.
type PollConfig struct {
	Attempts int
	Delay    time.Duration
}

func NewService(
	items ItemProvider,
	purchases PurchaseChecker,
	bus *events.EventBus,
	cfg PollConfig,
	logger *slog.Logger,
) *Service {
	if cfg.Attempts < 1 {
		cfg.Attempts = 5
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	return &Service{
		items:        items,
		purchases:    purchases,
		bus:          bus,
		logger:       logger,
		pollAttempts: cfg.Attempts,
		pollDelay:    cfg.Delay,
		sleep:        time.Sleep,
	}
}

// Authorize decides whether userID may access itemID's content and returns
// the content locations if so. Free items bypass the ledger entirely.
func (s *Service) Authorize(userID int64, itemID string) (*DownloadResult, error) {
	it, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if !it.IsFree() {
		if err := s.awaitEntitlement(userID, it); err != nil {
			return nil, err
		}
	}

	if it.DownloadURL == nil && it.SourceURL == nil {
		s.logger.Error("entitled user hit unconfigured content",
			"user_id", userID,
			"item_id", it.ID,
			"item_type", it.ItemType)
		return nil, errors.ErrContentNotConfigured
	}

	event := events.NewContentAccessedEvent(userID, it.ItemType, it.ID)
	if err := s.bus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish content accessed event",
			"error", err,
			"user_id", userID,
			"item_id", it.ID)
	}

	return &DownloadResult{
		ItemID:      it.ID,
		ItemType:    it.ItemType,
		Title:       it.Title,
		DownloadURL: it.DownloadURL,
		SourceURL:   it.SourceURL,
	}, nil
}

// awaitEntitlement polls the ledger until an entitling record is visible or
// the attempt budget runs out. Lookup errors consume an attempt like a miss;
// a transiently failing read must not deny faster than a slow one.
func (s *Service) awaitEntitlement(userID int64, it *itemDatamodel.Item) error {
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		rec, err := s.purchases.GetByUserAndItem(userID, it.ItemType, it.ID)
		if err != nil {
			s.logger.Warn("entitlement poll lookup failed",
				"error", err,
				"user_id", userID,
				"item_id", it.ID,
				"attempt", attempt)
		} else if rec != nil && rec.Entitles() {
			return nil
		}

		if attempt < s.pollAttempts {
			s.sleep(s.pollDelay)
		}
	}

	s.logger.Info("download denied, no entitlement after polling",
		"user_id", userID,
		"item_id", it.ID,
		"attempts", s.pollAttempts)
	return errors.ErrNotPurchased
}
