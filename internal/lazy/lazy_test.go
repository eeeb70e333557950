/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package lazy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCellLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	cell := New(func() (int, error) {
		calls.Add(1)
		return 42, nil
	})
	if calls.Load() != 0 {
		t.Fatal("thunk ran before Load")
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			if v, err := cell.Load(); v != 42 || err != nil {
				t.Errorf("Load() = %d, %v", v, err)
			}
		})
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("thunk ran %d times, want 1", got)
	}
}

func TestCellMemoizesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	cell := New(func() (string, error) {
		calls++
		return "", boom
	})
	for range 2 {
		if _, err := cell.Load(); !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	}
	if calls != 1 {
		t.Errorf("thunk ran %d times, want 1", calls)
	}
}

func TestOf(t *testing.T) {
	v, err := Of([]string{"a"}).Load()
	if err != nil || len(v) != 1 || v[0] != "a" {
		t.Errorf("Load() = %v, %v", v, err)
	}
}
