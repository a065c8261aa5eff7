package listener

import (
	"context"
	"sync"

	"notifyrelay/internal/model"
)

type registration struct {
	onNotification func(model.SystemNotification)
}

// Push is an in-process source: notifications handed to Push are delivered to
// every active registration.
type Push struct {
	mu   sync.RWMutex
	regs map[*registration]struct{}
}

func NewPush() *Push {
	return &Push{regs: make(map[*registration]struct{})}
}

func (p *Push) Listen(ctx context.Context, onNotification func(model.SystemNotification), _ func(error)) error {
	reg := &registration{onNotification: onNotification}
	p.mu.Lock()
	p.regs[reg] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.regs, reg)
		p.mu.Unlock()
	}()
	return nil
}

// Push delivers notification and reports how many registrations received it.
func (p *Push) Push(notification model.SystemNotification) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for reg := range p.regs {
		reg.onNotification(notification)
	}
	return len(p.regs)
}

func (p *Push) Active() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.regs) > 0
}
