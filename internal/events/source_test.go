package events

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/store"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{Name: "Chicago Marathon", Date: "2026-10-11", Venue: "Grant Park", Address: "337 E Randolph St, Chicago, IL", URL: "https://example.com/m"},
		{Name: "Art Walk", Date: "2026-10-20", Venue: "River North", Address: model.NoAddress, URL: model.NoURL},
		{Name: "Bears Game", Date: "2026-10-20", Venue: "Soldier Field", Address: "1410 Special Olympics Dr, Chicago, IL", URL: "https://example.com/b"},
	}
}

var travelDay = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

func TestWriteReadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "choose_chicago_events.json")
	require.NoError(t, WriteFile(path, sampleEvents()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleEvents(), got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFile_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, WriteFile(path, sampleEvents()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"event_name":"Chicago Marathon","date":"2026-10-11","venue":"Grant Park",
		"location":"337 E Randolph St, Chicago, IL","url":"https://example.com/m"}]`, string(data))
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))
	_, err = ReadFile(path)
	assert.Error(t, err)
}

func TestFileSource_EventsOn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, WriteFile(path, sampleEvents()))

	got, err := FileSource{Path: path}.EventsOn(context.Background(), travelDay)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Art Walk", got[0].Name)
	assert.Equal(t, "Bears Game", got[1].Name)

	none, err := FileSource{Path: path}.EventsOn(context.Background(), travelDay.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileSource_MissingIsDatasetUnavailable(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}.EventsOn(context.Background(), travelDay)
	assert.ErrorIs(t, err, model.ErrDatasetUnavailable)
}

func TestStoreSource_EventsOn(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	_, err = st.UpsertEvents(context.Background(), sampleEvents())
	require.NoError(t, err)

	got, err := StoreSource{Store: st}.EventsOn(context.Background(), travelDay)
	require.NoError(t, err)
	require.Len(t, got, 2)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"Art Walk", "Bears Game"}, names)
}

func TestStoreSource_ClosedStoreIsDatasetUnavailable(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = StoreSource{Store: st}.EventsOn(context.Background(), travelDay)
	assert.ErrorIs(t, err, model.ErrDatasetUnavailable)
}
