package events

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestEventLog_Append(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	e := &testEvent{
		BaseEvent: NewBaseEvent("test.created", "test", 1),
		Message:   "hello",
	}

	id, err := log.Append(e)
	require.NoError(t, err)
	assert.Positive(t, id)

	// Verify payload is stored correctly
	events, err := log.ByType("test.created", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Payload, `"message":"hello"`)
	assert.Equal(t, "test.created", events[0].EventType)
	assert.Equal(t, "test", events[0].EntityType)
	assert.Equal(t, int64(1), events[0].EntityID)
}

func TestEventLog_Since(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	start := time.Now().Add(-time.Hour)

	// Add events
	e1 := &testEvent{BaseEvent: NewBaseEvent("test.first", "test", 1), Message: "first"}
	e2 := &testEvent{BaseEvent: NewBaseEvent("test.second", "test", 2), Message: "second"}

	_, err := log.Append(e1)
	require.NoError(t, err)
	_, err = log.Append(e2)
	require.NoError(t, err)

	// Query
	events, err := log.Since(start)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// Verify order (by id ascending)
	assert.Equal(t, "test.first", events[0].EventType)
	assert.Equal(t, "test.second", events[1].EventType)
}

func TestEventLog_ByType(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	e1 := &testEvent{BaseEvent: NewBaseEvent(EventImageFailed, EntityImage, 1), Message: "one"}
	e2 := &testEvent{BaseEvent: NewBaseEvent(EventImageCompressed, EntityImage, 2), Message: "two"}
	e3 := &testEvent{BaseEvent: NewBaseEvent(EventImageFailed, EntityImage, 3), Message: "three"}

	for _, e := range []Event{e1, e2, e3} {
		_, err := log.Append(e)
		require.NoError(t, err)
	}

	failed, err := log.ByType(EventImageFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 2)

	// Newest first
	assert.Equal(t, int64(3), failed[0].EntityID)
	assert.Equal(t, int64(1), failed[1].EntityID)

	limited, err := log.ByType(EventImageFailed, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(3), limited[0].EntityID)

	none, err := log.ByType(EventBatchStarted, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventLog_Prune(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	// Insert an event with a manually backdated occurred_at
	_, err := db.Exec(`
		INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		"test.old", "test", 1, `{"message":"old"}`, time.Now().UTC().Add(-100*24*time.Hour),
	)
	require.NoError(t, err)

	// Insert a recent event
	e := &testEvent{BaseEvent: NewBaseEvent("test.new", "test", 2), Message: "new"}
	_, err = log.Append(e)
	require.NoError(t, err)

	// Prune events older than 90 days
	count, err := log.Prune(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Verify only the new event remains
	events, err := log.Since(time.Time{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "test.new", events[0].EventType)
}

func TestEventLog_Recent(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	// Insert 5 events
	for i := 0; i < 5; i++ {
		evt := &ImageCompressed{
			BaseEvent:  NewBaseEvent(EventImageCompressed, EntityImage, int64(i+1)),
			BatchID:    "batch",
			SourcePath: fmt.Sprintf("/src/%d.png", i+1),
		}
		_, err := log.Append(evt)
		require.NoError(t, err)
	}

	// Get last 3
	events, err := log.Recent(3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	// Should be in reverse chronological order (newest first)
	assert.Equal(t, int64(5), events[0].EntityID)
	assert.Equal(t, int64(4), events[1].EntityID)
	assert.Equal(t, int64(3), events[2].EntityID)
}

// testEvent is a concrete event type for testing
type testEvent struct {
	BaseEvent
	Message string `json:"message"`
}

func TestEventLog_RoundTripThroughRegistry(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	_, err := log.Append(&ImageCompressed{
		BaseEvent:      NewBaseEvent(EventImageCompressed, EntityImage, 7),
		BatchID:        "b-1",
		SourcePath:     "/src/x.png",
		FinalPath:      "/out/x.webp",
		OriginalSize:   1000,
		CompressedSize: 400,
	})
	require.NoError(t, err)

	raw, err := log.Recent(1)
	require.NoError(t, err)
	require.Len(t, raw, 1)

	event, err := DefaultRegistry().Unmarshal(raw[0])
	require.NoError(t, err)

	compressed, ok := event.(*ImageCompressed)
	require.True(t, ok)
	assert.Equal(t, "/out/x.webp", compressed.FinalPath)
	assert.Equal(t, int64(1000), compressed.OriginalSize)
	assert.Equal(t, int64(400), compressed.CompressedSize)
	assert.Equal(t, int64(7), compressed.EntityID())
}
