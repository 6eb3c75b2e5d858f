package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/access"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/config"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
	"github.com/spec-kit/restaurant-backoffice/internal/session"
	"github.com/spec-kit/restaurant-backoffice/internal/views"
)

var errNoCredentials = errors.New("no stored session and BACKOFFICE_USERNAME/BACKOFFICE_PASSWORD unset")

type view interface {
	Activate(ctx context.Context) error
	Deactivate()
	OnChange(fn func())
	Messages() []string
}

type screen struct {
	name  string
	roles []domain.Role
	build func() view
}

// console is the headless back office: one guard and at most one live view
// per screen, all bound to the same session and channel.
type console struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *session.Store
	api     *client.Client
	channel *realtime.Channel
	routes  access.Routes

	mu     sync.Mutex
	guards []*access.Guard
	views  map[string]view
}

func newConsole(cfg *config.Config, logger *zap.Logger, store *session.Store, api *client.Client, channel *realtime.Channel) *console {
	return &console{
		cfg:     cfg,
		logger:  logger.Named("console"),
		store:   store,
		api:     api,
		channel: channel,
		routes:  access.Routes{Login: cfg.Session.LoginRoute, Denied: cfg.Session.DeniedRoute},
		views:   make(map[string]view),
	}
}

// signIn restores a persisted session or logs in with the configured
// credentials, then connects the realtime channel.
func (c *console) signIn(ctx context.Context) error {
	restored, err := c.store.Restore(ctx)
	if err != nil {
		c.logger.Warn("session restore failed", zap.Error(err))
	}
	if !restored {
		if c.cfg.Console.Username == "" || c.cfg.Console.Password == "" {
			return errNoCredentials
		}
		resp, err := c.api.Login(ctx, c.cfg.Console.Username, c.cfg.Console.Password)
		if err != nil {
			return err
		}
		if err := c.store.Set(ctx, resp.Token, resp.User); err != nil {
			return err
		}
	}

	token, _ := c.store.Token()
	profile, _ := c.store.Profile()
	c.logger.Info("signed in",
		zap.String("username", profile.Username),
		zap.String("role", string(profile.Role)),
		zap.Bool("restored", restored))
	c.channel.Connect(ctx, token, profile.ID, profile.Role)
	return nil
}

func (c *console) screens() []screen {
	limit := c.cfg.Console.NotificationLimit
	return []screen{
		{
			name:  "dashboard",
			roles: auth.Supervisors,
			build: func() view { return views.NewDashboard(c.api, c.channel, c.logger, limit) },
		},
		{
			name:  "kitchen",
			roles: []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleKitchenStaff},
			build: func() view { return views.NewKitchen(c.api, c.channel, c.logger, limit) },
		},
		{
			name:  "delivery",
			roles: []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleDeliveryStaff},
			build: func() view { return views.NewDelivery(c.api, c.channel, c.logger, limit) },
		},
	}
}

// open guards every screen. A screen's view lives exactly while its guard
// allows it.
func (c *console) open(ctx context.Context) {
	for _, s := range c.screens() {
		nav := access.NavigatorFunc(func(target string) {
			c.logger.Info("redirect", zap.String("screen", s.name), zap.String("target", target))
		})
		guard := access.NewGuard(c.store, nav, c.routes, c.logger, s.roles...)
		guard.OnChange(func(d access.Decision) {
			if d.Outcome == access.Render {
				c.activate(ctx, s)
			} else {
				c.deactivate(s.name)
			}
		})
		c.mu.Lock()
		c.guards = append(c.guards, guard)
		c.mu.Unlock()
		if guard.Allowed() {
			c.activate(ctx, s)
		}
	}
}

func (c *console) activate(ctx context.Context, s screen) {
	c.mu.Lock()
	if _, live := c.views[s.name]; live {
		c.mu.Unlock()
		return
	}
	v := s.build()
	c.views[s.name] = v
	c.mu.Unlock()

	v.OnChange(func() {
		if msgs := v.Messages(); len(msgs) > 0 {
			c.logger.Info("screen updated", zap.String("screen", s.name), zap.String("latest", strings.TrimSpace(msgs[0])))
		}
	})
	if err := v.Activate(ctx); err != nil {
		c.logger.Warn("screen load failed", zap.String("screen", s.name), zap.Error(err))
	}
}

func (c *console) deactivate(name string) {
	c.mu.Lock()
	v, ok := c.views[name]
	delete(c.views, name)
	c.mu.Unlock()
	if ok {
		v.Deactivate()
	}
}

// sessionExpired runs when a request comes back 401. The client has already
// cleared the session; the guards close the views.
func (c *console) sessionExpired() {
	c.logger.Warn("session expired")
	c.channel.Disconnect()
}

// logout tears down the screens and the channel and clears the session.
func (c *console) logout() {
	c.mu.Lock()
	guards := c.guards
	c.guards = nil
	live := c.views
	c.views = make(map[string]view)
	c.mu.Unlock()

	for _, g := range guards {
		g.Close()
	}
	for _, v := range live {
		v.Deactivate()
	}
	c.channel.Disconnect()
	c.store.Clear(context.Background())
}
