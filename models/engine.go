package models

import (
	"context"
	"sync"
)

// Engine defines a processing unit
type Engine interface {
	// Run the engine with context, shutting down cleanly when the context is
	// cancelled or Stop is called.
	Run(ctx context.Context) error
	// Stop the engine and wait for it to wind down.
	Stop()
	// Done signals the engine was requested to stop.
	Done() <-chan struct{}
	// Ready signals the engine was started.
	Ready() <-chan struct{}
	// Stopped signals the engine fully wound down.
	Stopped() <-chan struct{}
}

// EngineStatus carries the lifecycle channels an engine exposes.
type EngineStatus struct {
	done    chan struct{}
	ready   chan struct{}
	stopped chan struct{}

	markDoneOnce    sync.Once
	markReadyOnce   sync.Once
	markStoppedOnce sync.Once
}

func NewEngineStatus() *EngineStatus {
	return &EngineStatus{
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *EngineStatus) MarkReady() {
	s.markReadyOnce.Do(func() { close(s.ready) })
}

func (s *EngineStatus) MarkDone() {
	s.markDoneOnce.Do(func() { close(s.done) })
}

func (s *EngineStatus) MarkStopped() {
	s.markStoppedOnce.Do(func() { close(s.stopped) })
}

func (s *EngineStatus) Ready() <-chan struct{} {
	return s.ready
}

func (s *EngineStatus) Done() <-chan struct{} {
	return s.done
}

func (s *EngineStatus) Stopped() <-chan struct{} {
	return s.stopped
}
