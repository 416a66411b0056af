// Package mocks provides test doubles for the geocode client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// MockClient is a mock type for the geocode.Client interface.
type MockClient struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address
func (_m *MockClient) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	ret := _m.Called(ctx, address)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (*geocode.Result, error)); ok {
		return rf(ctx, address)
	}

	var r0 *geocode.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*geocode.Result)
	}
	return r0, ret.Error(1)
}

// BatchGeocode provides a mock function with given fields: ctx, addresses
func (_m *MockClient) BatchGeocode(ctx context.Context, addresses []string) ([]geocode.Result, error) {
	ret := _m.Called(ctx, addresses)

	if len(ret) == 0 {
		panic("no return value specified for BatchGeocode")
	}

	if rf, ok := ret.Get(0).(func(context.Context, []string) ([]geocode.Result, error)); ok {
		return rf(ctx, addresses)
	}

	var r0 []geocode.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]geocode.Result)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient and registers cleanup
// assertions on t.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ geocode.Client = (*MockClient)(nil)
