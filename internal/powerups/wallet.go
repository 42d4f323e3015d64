package powerups

import (
	"errors"
	"math"
	"strconv"

	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

// CoinsKey is the key the balance is persisted under
const CoinsKey = "coins"

// AddCoins credits amount to the balance. Non-positive amounts are ignored
// and the balance saturates at math.MaxInt64.
func (m *Manager) AddCoins(amount int64) {
	if amount <= 0 {
		return
	}

	m.mu.Lock()
	if amount > math.MaxInt64-m.coins {
		m.logger.Warn("coin balance capped", zap.Int64("balance", m.coins), zap.Int64("amount", amount))
		m.coins = math.MaxInt64
	} else {
		m.coins += amount
	}
	m.saveCoinsLocked()
	m.mu.Unlock()
}

// Coins returns the current balance
func (m *Manager) Coins() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins
}

func (m *Manager) saveCoinsLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.Set(CoinsKey, strconv.FormatInt(m.coins, 10)); err != nil {
		m.logger.Warn("failed to save coin balance", zap.Error(err))
	}
}

// loadCoins reads the persisted balance. Missing, corrupt or negative values
// mean an empty wallet.
func (m *Manager) loadCoins() int64 {
	if m.store == nil {
		return 0
	}

	raw, err := m.store.Get(CoinsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0
	}
	if err != nil {
		m.logger.Warn("failed to load coin balance", zap.Error(err))
		return 0
	}

	coins, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || coins < 0 {
		m.logger.Warn("corrupt coin balance, starting from zero", zap.String("value", raw), zap.Error(err))
		return 0
	}
	return coins
}
