// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package workers

import (
	"testing"
)

// countingWorker tracks how many times Run was called.
type countingWorker struct {
	runCount int
}

func (c *countingWorker) Run() {
	c.runCount++
}

// orderWorker appends its ID to a shared slice on Run.
type orderWorker struct {
	id    int
	order *[]int
}

func (o *orderWorker) Run() {
	*o.order = append(*o.order, o.id)
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &countingWorker{}
	w2 := &countingWorker{}
	w3 := &countingWorker{}

	NewWorkers(w1, w2, w3).Run()

	for i, w := range []*countingWorker{w1, w2, w3} {
		if w.runCount != 1 {
			t.Errorf("worker[%d]: expected runCount=1, got %d", i, w.runCount)
		}
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	// Should not panic with no workers registered.
	NewWorkers().Run()
	(&Workers{}).Run()
}

func TestWorkers_Run_RegistrationOrder(t *testing.T) {
	order := []int{}
	ws := NewWorkers(
		&orderWorker{id: 1, order: &order},
		&orderWorker{id: 2, order: &order},
		&orderWorker{id: 3, order: &order},
	)
	ws.Run()

	for i, want := range []int{1, 2, 3} {
		if order[i] != want {
			t.Errorf("expected order[%d]=%d, got %d", i, want, order[i])
		}
	}
}

func TestWorkers_Run_Repeatable(t *testing.T) {
	w := &countingWorker{}
	ws := NewWorkers(w)

	ws.Run()
	ws.Run()
	ws.Run()

	if w.runCount != 3 {
		t.Errorf("expected runCount=3 after 3 calls, got %d", w.runCount)
	}
}
