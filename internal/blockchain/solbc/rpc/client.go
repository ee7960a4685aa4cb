// internal/blockchain/solbc/rpc/client.go
package rpc

import (
	"sync/atomic"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// NewClient creates a NodeClient talking to url.
func NewClient(url string) *NodeClient {
	return NewNode(url, solanarpc.New(url))
}

// NewNode wraps an existing API implementation.
func NewNode(url string, api API) *NodeClient {
	return &NodeClient{
		API:     api,
		URL:     url,
		metrics: &metrics{},
	}
}

// GetMetrics returns success count, error count and a running latency average.
func (c *NodeClient) GetMetrics() (uint64, uint64, time.Duration) {
	c.metrics.mutex.RLock()
	defer c.metrics.mutex.RUnlock()

	return atomic.LoadUint64(&c.metrics.successCount),
		atomic.LoadUint64(&c.metrics.errorCount),
		c.metrics.latency
}

// IsActive reports whether the node is outside its failure cooldown at now.
func (c *NodeClient) IsActive(now time.Time) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.failedAt.IsZero() || now.Sub(c.failedAt) >= Cooldown
}

func (c *NodeClient) markFailed(at time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failedAt = at
}

func (c *NodeClient) markHealthy() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.failedAt = time.Time{}
}

// UpdateMetrics records the outcome of one request.
func (c *NodeClient) UpdateMetrics(success bool, latency time.Duration) {
	c.metrics.mutex.Lock()
	defer c.metrics.mutex.Unlock()

	if success {
		atomic.AddUint64(&c.metrics.successCount, 1)
	} else {
		atomic.AddUint64(&c.metrics.errorCount, 1)
	}

	if c.metrics.latency == 0 {
		c.metrics.latency = latency
		return
	}
	c.metrics.latency = (c.metrics.latency + latency) / 2
}
