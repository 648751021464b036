/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a thread-safe set of gateways keyed by model name.
// Gateways of different record types can live in the same catalog.
type Catalog struct {
	mu       sync.RWMutex
	gateways map[string]any
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		gateways: make(map[string]any),
	}
}

// Register adds g under its model name
func Register[T any](c *Catalog, g *Gateway[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.gateways[g.Name()]; exists {
		return fmt.Errorf("gateway for model %q already registered", g.Name())
	}
	c.gateways[g.Name()] = g
	return nil
}

// Lookup returns the gateway registered under name with record type T
func Lookup[T any](c *Catalog, name string) (*Gateway[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, exists := c.gateways[name]
	if !exists {
		return nil, fmt.Errorf("gateway for model %q not found", name)
	}
	typed, ok := g.(*Gateway[T])
	if !ok {
		return nil, fmt.Errorf("gateway for model %q has record type %T", name, g)
	}
	return typed, nil
}

// Remove deletes the gateway registered under name
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.gateways[name]; !exists {
		return fmt.Errorf("gateway for model %q not found", name)
	}
	delete(c.gateways, name)
	return nil
}

// Names returns the registered model names in sorted order
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.gateways))
	for k := range c.gateways {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
