// Package mocks provides test doubles for the directions client.
package mocks

import (
	"context"
	"time"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/route"
)

// MockRouter is a mock type for the Router interface.
type MockRouter struct {
	mock.Mock
}

// Route provides a mock function with given fields: ctx, origin, destination, departure
func (_m *MockRouter) Route(ctx context.Context, origin, destination geo.Point, departure time.Time) (route.Route, error) {
	ret := _m.Called(ctx, origin, destination, departure)

	if len(ret) == 0 {
		panic("no return value specified for Route")
	}

	if rf, ok := ret.Get(0).(func(context.Context, geo.Point, geo.Point, time.Time) (route.Route, error)); ok {
		return rf(ctx, origin, destination, departure)
	}

	var r0 route.Route
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(route.Route)
	}
	return r0, ret.Error(1)
}

// NewMockRouter creates a new instance of MockRouter and registers cleanup
// assertions on t.
func NewMockRouter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRouter {
	m := &MockRouter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
