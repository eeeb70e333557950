/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package lazy provides a load-once cell for expensive state that should only
// be computed when the first request needs it.
package lazy

import "sync"

// Cell holds a value computed by a thunk on first Load. The thunk runs at most
// once; its value and error are memoized for every later caller.
type Cell[T any] struct {
	once  sync.Once
	load  func() (T, error)
	value T
	err   error
}

// New returns a cell that will call load on first use.
func New[T any](load func() (T, error)) *Cell[T] {
	return &Cell[T]{load: load}
}

// Of returns a cell that is already loaded with value.
func Of[T any](value T) *Cell[T] {
	c := &Cell[T]{value: value}
	c.once.Do(func() {})
	return c
}

// Load returns the memoized value, computing it if needed.
func (c *Cell[T]) Load() (T, error) {
	c.once.Do(func() {
		c.value, c.err = c.load()
		c.load = nil
	})
	return c.value, c.err
}
