// Package integration holds the password changers that push a new password
// to the system an item belongs to. Changers are registered by id at startup
// and looked up by the id stored against a location.
package integration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

var (
	ErrDuplicateChanger = errors.New("password changer already registered")
	ErrNoChanger        = errors.New("no password changer configured")
)

// PasswordChanger sets a new password for the account described by props.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, item *models.Item, props *models.ItemProperties, newPassword string) error
}

// Factory builds a changer for one use.
type Factory func(logger logging.Logger) PasswordChanger

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{factories: map[string]Factory{}, logger: logger.With("module", "integration")}
}

// Register adds f under id. Registering the same id twice fails.
func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateChanger, id)
	}
	r.factories[id] = f
	return nil
}

// Get builds the changer registered under id.
func (r *Registry) Get(id string) (PasswordChanger, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("password changer %q: %w", id, common.ErrorNotFound)
	}
	return f(r.logger.With("changer", id)), nil
}

// ForLocation builds the changer configured on loc.
func (r *Registry) ForLocation(loc *models.Location) (PasswordChanger, error) {
	if loc.ChangerID == "" {
		return nil, fmt.Errorf("location %s: %w", loc.ID, ErrNoChanger)
	}
	return r.Get(loc.ChangerID)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

const LoggingChangerID = "log"

// LoggingChanger records the request and changes nothing.
type LoggingChanger struct {
	logger logging.Logger
}

func NewLoggingChanger(logger logging.Logger) PasswordChanger {
	return &LoggingChanger{logger: logger}
}

func (c *LoggingChanger) ChangePassword(ctx context.Context, item *models.Item, props *models.ItemProperties, newPassword string) error {
	if newPassword == "" {
		return errors.New("empty password")
	}
	c.logger.Info(ctx, "password change requested", "item_id", item.ID, "location_id", item.LocationID, "username", props.Username)
	return nil
}

// NewDefaultRegistry returns a registry holding the built-in changers.
func NewDefaultRegistry(logger logging.Logger) *Registry {
	r := NewRegistry(logger)
	_ = r.Register(LoggingChangerID, NewLoggingChanger)
	return r
}
