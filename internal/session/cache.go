// Package session holds state scoped to one signed-in user for the lifetime
// of a session.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// ProfileSource loads the signed-in user's profile.
type ProfileSource interface {
	GetProfile(ctx context.Context) (*types.Profile, error)
}

// Cache serves the signed-in user's profile from memory. Concurrent loads
// collapse into one call to the source. Create one per session and call
// Invalidate on sign-out.
type Cache struct {
	source ProfileSource
	log    *zap.Logger

	group singleflight.Group

	mu      sync.RWMutex
	profile *types.Profile
	gen     uint64 // bumped by Invalidate so stale loads are not stored
}

// NewCache returns an empty cache over source.
func NewCache(source ProfileSource, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{source: source, log: log}
}

// Profile returns the cached profile, loading it on first use.
func (c *Cache) Profile(ctx context.Context) (*types.Profile, error) {
	c.mu.RLock()
	p := c.profile
	c.mu.RUnlock()
	if p != nil {
		cp := *p
		return &cp, nil
	}
	return c.load(ctx)
}

// Refresh reloads the profile from the source, replacing the cached copy.
func (c *Cache) Refresh(ctx context.Context) (*types.Profile, error) {
	return c.load(ctx)
}

// Invalidate drops the cached profile. Loads already in flight are not
// stored when they finish.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.profile = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget("profile")
	c.log.Debug("profile cache invalidated")
}

// Set stores p as the cached profile, typically after a successful save.
func (c *Cache) Set(p *types.Profile) {
	cp := *p
	c.mu.Lock()
	c.profile = &cp
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context) (*types.Profile, error) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	// The shared load outlives any one caller; each caller still returns
	// when its own ctx ends.
	ch := c.group.DoChan("profile", func() (any, error) {
		p, err := c.source.GetProfile(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			cp := *p
			c.profile = &cp
		}
		c.mu.Unlock()
		return p, nil
	})
	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("loading profile: %w", ctx.Err())
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, fmt.Errorf("loading profile: %w", r.Err)
	}
	c.log.Debug("profile loaded", zap.Bool("shared", r.Shared))
	cp := *r.Val.(*types.Profile)
	return &cp, nil
}
