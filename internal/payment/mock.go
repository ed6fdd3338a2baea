package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockGateway is a test double for Gateway with customizable behavior.
type MockGateway struct {
	// ChargeFunc overrides the default always-succeed behavior.
	ChargeFunc func(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockGateway creates a mock gateway that approves every charge.
func NewMockGateway() *MockGateway {
	return &MockGateway{CallLog: []string{}}
}

// Charge records the call and delegates to ChargeFunc if set.
func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("Charge(%s, %d)", req.Method.ID, req.Amount))

	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, req)
	}

	return &ChargeResult{ProviderRef: "mock_" + uuid.New().String()[:8]}, nil
}
