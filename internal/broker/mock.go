package broker

import (
	"context"
	"sync"
)

// MockClient is an in-memory brokerage used by mock mode and tests.
type MockClient struct {
	mu        sync.RWMutex
	positions []Position
	orders    []PendingOrder

	positionsErr error
	ordersErr    error
}

// NewMockClient creates an empty mock brokerage
func NewMockClient() *MockClient {
	return &MockClient{}
}

// SetPositions replaces the open position set
func (m *MockClient) SetPositions(positions []Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
}

// SetOrders replaces the pending order set
func (m *MockClient) SetOrders(orders []PendingOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

// FailPositions forces GetOpenPositions to return err. Pass nil to clear.
func (m *MockClient) FailPositions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionsErr = err
}

// FailOrders forces GetPendingOrders to return err. Pass nil to clear.
func (m *MockClient) FailOrders(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersErr = err
}

func (m *MockClient) GetOpenPositions(_ context.Context) ([]Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	out := make([]Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

func (m *MockClient) GetPendingOrders(_ context.Context) ([]PendingOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ordersErr != nil {
		return nil, m.ordersErr
	}
	out := make([]PendingOrder, len(m.orders))
	copy(out, m.orders)
	return out, nil
}
