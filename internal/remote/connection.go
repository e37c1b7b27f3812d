// Package remote provides the keyed document stores that activity projections are written to.
package remote

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// CollectionActivities is the collection holding projected activity documents.
const CollectionActivities = "activities"

// ErrDocumentKeyRequired indicates that a write was attempted without a document key.
var ErrDocumentKeyRequired = errors.New("remote: document key is required")

// DocumentStore writes whole documents addressed by collection and key.
type DocumentStore interface {
	// Set creates the document or fully replaces an existing one.
	Set(ctx context.Context, collection, key string, document any) error
	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, key string) error
}

// Connection is the outcome of a connect attempt: either a usable store or the reason none is available.
type Connection struct {
	store  DocumentStore
	reason string
}

// Connected wraps a usable store.
func Connected(store DocumentStore) Connection {
	if store == nil {
		return Unavailable("remote store is nil")
	}
	return Connection{store: store}
}

// Unavailable records why no store could be reached.
func Unavailable(reason string) Connection {
	if reason == "" {
		reason = "remote store unavailable"
	}
	return Connection{reason: reason}
}

// Available reports whether the connection carries a store.
func (c Connection) Available() bool {
	return c.store != nil
}

// Store returns the connected store, or nil when unavailable.
func (c Connection) Store() DocumentStore {
	return c.store
}

// Reason describes why the connection is unavailable.
func (c Connection) Reason() string {
	return c.reason
}

// Connector hands out connections to the remote store.
type Connector interface {
	Connect(ctx context.Context) Connection
}

// DialFunc establishes a fresh connection. The returned closer may be nil.
type DialFunc func(ctx context.Context) (Connection, func() error)

// LazyConnector dials on first use and caches the first successful connection.
// A failed dial is not cached; the next Connect dials again.
type LazyConnector struct {
	dial   DialFunc
	logger *zap.Logger

	mu     sync.Mutex
	cached Connection
	closer func() error
}

// NewLazyConnector constructs a connector around the dial function.
func NewLazyConnector(dial DialFunc, logger *zap.Logger) *LazyConnector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LazyConnector{dial: dial, logger: logger}
}

// Connect returns the cached connection or dials a new one.
func (c *LazyConnector) Connect(ctx context.Context) Connection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached.Available() {
		return c.cached
	}
	if c.dial == nil {
		return Unavailable("remote sync disabled")
	}

	connection, closer := c.dial(ctx)
	if !connection.Available() {
		// callers report the unavailable state; logging it here too would double it
		c.logger.Debug("remote store dial failed", zap.String("reason", connection.Reason()))
		return connection
	}
	c.cached = connection
	c.closer = closer
	c.logger.Info("remote store connected")
	return connection
}

// Close releases the cached client, if any.
func (c *LazyConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	closer := c.closer
	c.cached = Connection{}
	c.closer = nil
	if closer == nil {
		return nil
	}
	return closer()
}

// DisabledDial never connects.
func DisabledDial(_ context.Context) (Connection, func() error) {
	return Unavailable("remote sync disabled"), nil
}
