// internal/blockchain/solbc/rpc/pool.go
package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NewPool creates a pool over clients. It panics on an empty list.
func NewPool(clients []*NodeClient, logger *zap.Logger) *Pool {
	if len(clients) == 0 {
		panic("rpc: pool needs at least one client")
	}
	return &Pool{
		clients: clients,
		logger:  logger.Named("rpc-pool"),
		now:     time.Now,
	}
}

// Clients returns the nodes in configuration order.
func (p *Pool) Clients() []*NodeClient {
	return p.clients
}

// next returns the current node, skipping nodes in cooldown. When every node
// is cooling down the current one is used anyway.
func (p *Pool) next() *NodeClient {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := p.now()
	for i := 0; i < len(p.clients); i++ {
		idx := (p.curr + i) % len(p.clients)
		if p.clients[idx].IsActive(now) {
			p.curr = idx
			return p.clients[idx]
		}
	}
	p.logger.Warn("All RPC nodes are cooling down, using current node",
		zap.String("url", p.clients[p.curr].URL))
	return p.clients[p.curr]
}

func (p *Pool) advance(from *NodeClient) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.clients[p.curr] == from {
		p.curr = (p.curr + 1) % len(p.clients)
	}
}

// Execute runs operation once against the current node. A failure puts the node
// into cooldown so the next call goes elsewhere; the failed call itself is not repeated.
func (p *Pool) Execute(ctx context.Context, method string, operation func(context.Context, API) error) error {
	node := p.next()

	reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	start := p.now()
	err := operation(reqCtx, node.API)
	node.UpdateMetrics(err == nil, p.now().Sub(start))

	if err == nil {
		node.markHealthy()
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	node.markFailed(p.now())
	p.advance(node)
	p.logger.Debug("RPC request failed, node put in cooldown",
		zap.String("url", node.URL),
		zap.String("method", method),
		zap.Error(err))
	return NewError(err, node.URL, method)
}
