// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog defines the fixed set of platform categories, platforms,
// and actions the site publishes guides for. A Catalog is built once at
// startup and is read-only afterwards.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"masteraccount/internal/slug"
)

// Category groups platforms under a display heading.
type Category struct {
	Name      string   `yaml:"name"`
	Platforms []string `yaml:"platforms"`
}

// Action is one guide topic available for every platform.
type Action struct {
	Name string // Display name, e.g. "Create Account"
	Key  string // Derived key, e.g. "create_account"
}

// Catalog is the immutable key space of the content document.
type Catalog struct {
	categories []Category
	actions    []Action
	platforms  map[string]bool
	actionKeys map[string]Action
}

// file is the YAML layout accepted by Load.
type file struct {
	Categories []Category `yaml:"categories"`
	Actions    []string   `yaml:"actions"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New([]Category{
		{Name: "Video Platforms", Platforms: []string{"YouTube", "TikTok", "Instagram", "Snapchat", "Likee", "Twitch"}},
		{Name: "Messaging Apps", Platforms: []string{"Telegram", "WhatsApp", "Signal", "Messenger"}},
		{Name: "Social Platforms", Platforms: []string{"TwitterX", "Threads", "Reddit", "Pinterest"}},
		{Name: "Professional", Platforms: []string{"LinkedIn"}},
		{Name: "Design & Art", Platforms: []string{"Behance", "DeviantArt"}},
		{Name: "Music", Platforms: []string{"Spotify", "SoundCloud"}},
	}, []string{"Create Account", "Delete Account", "Increase Followers", "Prevent Hacking"})
	if err != nil {
		panic("catalog: invalid built-in catalog: " + err.Error())
	}
	return c
}

// New validates the given categories and action names and builds a Catalog.
// Names must be non-empty, platforms unique across categories, and action
// keys unique.
func New(categories []Category, actions []string) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, errors.New("catalog: at least one category is required")
	}
	if len(actions) == 0 {
		return nil, errors.New("catalog: at least one action is required")
	}

	c := &Catalog{
		platforms:  make(map[string]bool),
		actionKeys: make(map[string]Action),
	}

	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, errors.New("catalog: category name is required")
		}
		if len(cat.Platforms) == 0 {
			return nil, fmt.Errorf("catalog: category %q has no platforms", name)
		}
		platforms := make([]string, 0, len(cat.Platforms))
		for _, p := range cat.Platforms {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("catalog: empty platform name in %q", name)
			}
			if c.platforms[p] {
				return nil, fmt.Errorf("catalog: duplicate platform %q", p)
			}
			c.platforms[p] = true
			platforms = append(platforms, p)
		}
		c.categories = append(c.categories, Category{Name: name, Platforms: platforms})
	}

	for _, a := range actions {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, errors.New("catalog: empty action name")
		}
		key := slug.Key(a)
		if _, dup := c.actionKeys[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate action key %q", key)
		}
		action := Action{Name: a, Key: key}
		c.actionKeys[key] = action
		c.actions = append(c.actions, action)
	}

	return c, nil
}

// Load reads a catalog from a YAML file:
//
//	categories:
//	  - name: Video Platforms
//	    platforms: [YouTube, TikTok]
//	actions: [Create Account, Delete Account]
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog read: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog parse %s: %w", path, err)
	}
	return New(f.Categories, f.Actions)
}

// Categories returns the categories in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Platforms: append([]string(nil), cat.Platforms...)}
	}
	return out
}

// Platforms returns every platform name in display order.
func (c *Catalog) Platforms() []string {
	var out []string
	for _, cat := range c.categories {
		out = append(out, cat.Platforms...)
	}
	return out
}

// Actions returns the actions in display order.
func (c *Catalog) Actions() []Action {
	return append([]Action(nil), c.actions...)
}

// HasPlatform reports whether platform is part of the catalog.
func (c *Catalog) HasPlatform(platform string) bool {
	return c.platforms[platform]
}

// Action looks up an action by its key.
func (c *Catalog) Action(key string) (Action, bool) {
	a, ok := c.actionKeys[key]
	return a, ok
}

// Contains reports whether the (platform, action key) pair exists.
func (c *Catalog) Contains(platform, actionKey string) bool {
	_, ok := c.actionKeys[actionKey]
	return ok && c.platforms[platform]
}

// Placeholder returns the default guide text for a pair.
func Placeholder(action, platform string) string {
	return fmt.Sprintf("Guide for %s on %s", action, platform)
}
