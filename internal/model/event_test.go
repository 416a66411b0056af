package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDay(t *testing.T) {
	e := Event{Name: "Air and Water Show", Date: "2026-08-15"}
	d, err := e.Day()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = Event{Name: "bad", Date: "08/15/2026"}.Day()
	assert.Error(t, err)
}

func TestEventHasAddress(t *testing.T) {
	assert.True(t, Event{Address: "2301 S King Dr, Chicago, IL"}.HasAddress())
	assert.False(t, Event{Address: ""}.HasAddress())
	assert.False(t, Event{Address: "  "}.HasAddress())
	assert.False(t, Event{Address: NoAddress}.HasAddress())
	assert.False(t, Event{Address: "no address"}.HasAddress())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2026-10-17 ")
	require.NoError(t, err)
	assert.Equal(t, 17, d.Day())

	_, err = ParseDate("tomorrow")
	assert.Error(t, err)
}

func TestParseStopKind(t *testing.T) {
	k, err := ParseStopKind("rail")
	require.NoError(t, err)
	assert.Equal(t, StopKindRail, k)

	_, err = ParseStopKind("ferry")
	assert.Error(t, err)
}
