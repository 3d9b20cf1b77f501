package exchange

import (
	"fmt"
	"sync"

	"llm-trading-agent/internal/types"
)

// candleCache manages symbol-specific candle buffers with thread-safe access.
// It keeps the most recent fetch per symbol so a transient venue failure can
// still serve indicator inputs.
type candleCache struct {
	buffers map[string]*candleBuffer
	mu      sync.RWMutex
}

// candleBuffer stores recent candles in a circular buffer
type candleBuffer struct {
	candles []types.Candle
	maxSize int
}

func newCandleCache() *candleCache {
	return &candleCache{
		buffers: make(map[string]*candleBuffer),
	}
}

// put replaces or extends the symbol's buffer with freshly fetched candles.
func (cc *candleCache) put(symbol string, candles []types.Candle, maxSize int) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	buffer, exists := cc.buffers[symbol]
	if !exists {
		buffer = &candleBuffer{
			candles: make([]types.Candle, 0, maxSize),
			maxSize: maxSize,
		}
		cc.buffers[symbol] = buffer
	}

	buffer.candles = append(buffer.candles, candles...)

	// Maintain circular buffer size
	if len(buffer.candles) > buffer.maxSize {
		buffer.candles = buffer.candles[len(buffer.candles)-buffer.maxSize:]
	}
}

// getRecent retrieves the last n candles for a symbol
func (cc *candleCache) getRecent(symbol string, n int) ([]types.Candle, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buffer, exists := cc.buffers[symbol]
	if !exists {
		return nil, fmt.Errorf("no candle data for symbol %s", symbol)
	}

	candles := buffer.candles
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles available for %s", symbol)
	}

	if len(candles) < n {
		out := make([]types.Candle, len(candles))
		copy(out, candles)
		return out, nil
	}

	out := make([]types.Candle, n)
	copy(out, candles[len(candles)-n:])
	return out, nil
}

// clear removes all candles from all buffers
func (cc *candleCache) clear() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for symbol := range cc.buffers {
		cc.buffers[symbol].candles = make([]types.Candle, 0, cc.buffers[symbol].maxSize)
	}
}
