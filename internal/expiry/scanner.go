// Package expiry finds the items a user can read whose expiry date has passed
// or is close.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/hierarchy"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/configuration"
	"github.com/dmitrijs2005/gophvault/internal/repositories/nodes"
)

// DefaultWarningDays is used when no valid warning period is configured.
const DefaultWarningDays = 7

// Scanner classifies items one at a time and accumulates the results. Items
// under the user's personal node, or the personal node itself, are never
// reported.
type Scanner struct {
	now       time.Time
	threshold time.Time
	personal  string

	nodes    nodes.Repository
	maxDepth int
	logger   logging.Logger

	expired  map[string]struct{}
	expiring map[string]struct{}
}

// NewScanner fixes the scan instants from now and looks up the personal node
// of userID. A malformed warning period in cfg is deleted and the default is
// used instead.
func NewScanner(ctx context.Context, cfg configuration.Repository, n nodes.Repository, userID string,
	now time.Time, maxDepth int, l logging.Logger) (*Scanner, error) {

	l = l.With("module", "expiry", "user_id", userID)

	personal := ""
	node, err := n.GetPersonalNodeForUser(ctx, userID)
	switch {
	case err == nil:
		personal = node.ID
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("personal node of %s: %w", userID, err)
	}

	if maxDepth <= 0 {
		maxDepth = hierarchy.DefaultMaxDepth
	}

	days := warningDays(ctx, cfg, l)
	return &Scanner{
		now:       now,
		threshold: now.AddDate(0, 0, days),
		personal:  personal,
		nodes:     n,
		maxDepth:  maxDepth,
		logger:    l,
		expired:   map[string]struct{}{},
		expiring:  map[string]struct{}{},
	}, nil
}

func warningDays(ctx context.Context, cfg configuration.Repository, l logging.Logger) int {
	raw, err := cfg.Get(ctx, models.OptionExpiryWarningDays)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			l.Warn(ctx, "cannot read warning period, using default", "error", err)
		}
		return DefaultWarningDays
	}

	days, err := strconv.Atoi(raw)
	if err == nil && days >= 0 {
		return days
	}

	l.Warn(ctx, "discarding malformed warning period", "value", raw,
		"error", fmt.Errorf("%w: %s=%q", common.ErrConfiguration, models.OptionExpiryWarningDays, raw))
	if err := cfg.Delete(ctx, models.OptionExpiryWarningDays); err != nil {
		l.Warn(ctx, "cannot delete malformed warning period", "error", err)
	}
	return DefaultWarningDays
}

// Threshold is the instant before which an unexpired item counts as expiring.
func (s *Scanner) Threshold() time.Time {
	return s.threshold
}

// Process classifies item using its decrypted properties. Items without an
// expiry date are ignored.
func (s *Scanner) Process(ctx context.Context, item *models.Item, props *models.ItemProperties) error {
	if props.Expiry == nil {
		return nil
	}

	if s.personal != "" {
		personal, err := s.underPersonal(ctx, item.ParentID)
		if err != nil {
			return err
		}
		if personal {
			return nil
		}
	}

	switch expiry := *props.Expiry; {
	case expiry.Before(s.now):
		s.expired[item.ID] = struct{}{}
	case expiry.Before(s.threshold):
		s.expiring[item.ID] = struct{}{}
	}
	return nil
}

// underPersonal walks up from nodeID until it meets the personal node or
// the root.
func (s *Scanner) underPersonal(ctx context.Context, nodeID string) (bool, error) {
	current := nodeID
	for steps := 0; current != "" && current != models.RootNodeID; steps++ {
		if current == s.personal {
			return true, nil
		}
		if steps >= s.maxDepth {
			return false, fmt.Errorf("%w: %s is more than %d levels deep", common.ErrStructural, nodeID, s.maxDepth)
		}
		node, err := s.nodes.GetByID(ctx, current)
		if err != nil {
			return false, fmt.Errorf("load node %s: %w", current, err)
		}
		current = node.ParentID
	}
	return false, nil
}

// Expired returns the ids of expired items, sorted.
func (s *Scanner) Expired() []string {
	return sortedKeys(s.expired)
}

// Expiring returns the ids of items expiring before Threshold, sorted.
func (s *Scanner) Expiring() []string {
	return sortedKeys(s.expiring)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
