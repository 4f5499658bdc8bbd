package di

import (
	"context"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/auth"
	"github.com/goliatone/go-catalog-admin/cache"
	"github.com/goliatone/go-catalog-admin/catalog"
	"github.com/goliatone/go-catalog-admin/catalogcache"
	"github.com/goliatone/go-catalog-admin/config"
	"github.com/goliatone/go-catalog-admin/internal/cacheinfra"
	"github.com/goliatone/go-catalog-admin/internal/logging"
	"github.com/goliatone/go-catalog-admin/internal/tokenstore"
	"github.com/goliatone/go-catalog-admin/mutation"
	"github.com/goliatone/go-catalog-admin/query"
	"github.com/goliatone/go-catalog-admin/session"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	notifier mutation.Notifier
	tokens   session.TokenStore
	http     *http.Client
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotifier sets where mutation outcomes are announced.
func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithTokenStore replaces the sqlite token store opened from SessionDBPath.
func WithTokenStore(ts session.TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// WithHTTPClient replaces the HTTP client shared by the gateways.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// Container wires every component of the catalog admin from one config.Config.
// It owns the session, both caches and the mutation coordinators, and keeps track of the
// page currently on screen so mutations know which page to patch.
type Container struct {
	config config.Config
	logger *zap.Logger
	closer io.Closer

	sessions      *session.Store
	authenticator *auth.Gateway
	gateway       *catalog.HTTPClient
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	catalog       *catalogcache.Client
	queries       *query.Cache

	login  *mutation.Coordinator[mutation.LoginRequest, auth.Result]
	create *mutation.Coordinator[catalog.ProductInput, catalog.Product]
	update *mutation.Coordinator[mutation.UpdateRequest, catalog.Product]
	remove *mutation.Coordinator[int, catalog.DeleteResult]

	activeMu sync.RWMutex
	active   query.Key
}

// NewContainer validates cfg and builds every component. Starting or resetting a session
// purges both caches.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	httpClient := o.http
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	c := &Container{
		config:        cfg,
		logger:        logger,
		keySerializer: cache.NewDefaultKeySerializer(),
		active:        query.NewKey("", cfg.PageSize, 1),
	}

	tokens := o.tokens
	if tokens == nil {
		store, err := tokenstore.Open(ctx, cfg.SessionDBPath)
		if err != nil {
			return nil, err
		}
		tokens = store
		c.closer = store
	}

	sessions, err := session.New(ctx, tokens, session.WithLogger(logger.Named("session")))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.sessions = sessions

	cacheService, err := cacheinfra.NewSturdycService(cfg.DetailCache())
	if err != nil {
		c.Close()
		return nil, err
	}
	c.cacheService = cacheService

	c.authenticator = auth.NewGateway(cfg.AuthBaseURL,
		auth.WithHTTPClient(httpClient),
		auth.WithAPIKey(cfg.AuthAPIKey),
		auth.WithFallbackDelay(cfg.AuthFallbackDelay),
		auth.WithLogger(logger.Named("auth")),
	)
	c.gateway = catalog.NewHTTPClient(cfg.CatalogBaseURL,
		catalog.WithHTTPClient(httpClient),
		catalog.WithTokenSource(sessions),
		catalog.WithLogger(logger.Named("catalog")),
	)
	c.catalog = catalogcache.New(c.gateway, c.cacheService, c.keySerializer, logger.Named("catalogcache"))
	c.queries = query.New(query.CatalogFetcher(c.gateway), cfg.Query(), query.WithLogger(logger.Named("query")))

	purge := func(ctx context.Context) {
		c.queries.PurgeAll()
		if err := c.catalog.Purge(ctx); err != nil {
			logger.Warn("could not purge product records", zap.Error(err))
		}
	}
	sessions.OnLogin(purge)
	sessions.OnReset(purge)

	mopts := []mutation.Option{mutation.WithLogger(logger.Named("mutation"))}
	if o.notifier != nil {
		mopts = append(mopts, mutation.WithNotifier(o.notifier))
	}
	deps := mutation.Deps{
		Client:  c.gateway,
		Pages:   c.queries,
		Details: c.catalog,
		Active:  c.Active,
		Logger:  logger.Named("mutation"),
	}
	c.login = mutation.NewLogin(c.authenticator, sessions, mopts...)
	c.create = mutation.NewCreate(deps, mopts...)
	c.update = mutation.NewUpdate(deps, mopts...)
	c.remove = mutation.NewDelete(deps, mopts...)

	return c, nil
}

// NewContainerWithDefaults loads the configuration from the environment and ./.env.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewContainer(ctx, cfg, opts...)
}

// Close releases the token store and flushes the logger.
func (c *Container) Close() error {
	var err error
	if c.closer != nil {
		err = c.closer.Close()
		c.closer = nil
	}
	_ = c.logger.Sync()
	return err
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config { return c.config }

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// Session returns the session store.
func (c *Container) Session() *session.Store { return c.sessions }

// Authenticator returns the auth gateway.
func (c *Container) Authenticator() *auth.Gateway { return c.authenticator }

// Catalog returns the catalog gateway with cached product reads.
func (c *Container) Catalog() *catalogcache.Client { return c.catalog }

// Queries returns the product list cache.
func (c *Container) Queries() *query.Cache { return c.queries }

// CacheService returns the detail cache backend.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// KeySerializer returns the key serializer shared by the caches.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// Login returns the login coordinator.
func (c *Container) Login() *mutation.Coordinator[mutation.LoginRequest, auth.Result] {
	return c.login
}

// Create returns the create product coordinator.
func (c *Container) Create() *mutation.Coordinator[catalog.ProductInput, catalog.Product] {
	return c.create
}

// Update returns the update product coordinator.
func (c *Container) Update() *mutation.Coordinator[mutation.UpdateRequest, catalog.Product] {
	return c.update
}

// Delete returns the delete product coordinator.
func (c *Container) Delete() *mutation.Coordinator[int, catalog.DeleteResult] {
	return c.remove
}

// PageKey builds the list key for search and a 1-based page with the configured page size.
func (c *Container) PageKey(search string, page int) query.Key {
	return query.NewKey(search, c.config.PageSize, page)
}

// SetActive records the page currently on screen.
func (c *Container) SetActive(key query.Key) {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	c.active = key
}

// Active returns the page currently on screen.
func (c *Container) Active() query.Key {
	c.activeMu.RLock()
	defer c.activeMu.RUnlock()
	return c.active
}
