// Package mq carries change notifications between components.
package mq

import (
	"errors"
	"sync"
)

type Publisher interface {
	Publish(topic string, payload []byte) error
}

type Subscriber interface {
	Subscribe(topic string, handler func([]byte) error) error
}

type Noop struct{}

func (Noop) Publish(topic string, payload []byte) error               { return nil }
func (Noop) Subscribe(topic string, handler func([]byte) error) error { return nil }

// Bus is an in-process Publisher and Subscriber. Handlers run synchronously
// on the publishing goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte) error
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]func([]byte) error)}
}

func (b *Bus) Subscribe(topic string, handler func([]byte) error) error {
	if handler == nil {
		return errors.New("mq: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Publish delivers payload to every handler of topic and joins their errors.
func (b *Bus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	hs := append([]func([]byte) error(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
