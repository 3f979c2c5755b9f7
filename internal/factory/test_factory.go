package factory

import (
	"context"
	"time"

	"github.com/tunehive/partyhub/internal/dependencies/mocks"
	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/storage/memory"
	"github.com/tunehive/partyhub/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}

// SeedCatalog saves a small song catalog and a few users for testing
func (t *TestApp) SeedCatalog() error {
	ctx := context.Background()

	songs := []*model.Song{
		{ID: 1, Title: "Midnight City", Artist: "M83", DurationSeconds: 243},
		{ID: 2, Title: "Go!", Artist: "Public Service Broadcasting", DurationSeconds: 252},
		{ID: 7, Title: "Baba O'Riley", Artist: "The Who", DurationSeconds: 300},
	}
	for _, song := range songs {
		if err := t.Storage.SaveSong(ctx, song); err != nil {
			return err
		}
	}

	users := []*model.User{
		{ID: 1, DisplayName: "Alice", CreatedAt: t.MockClock.Now()},
		{ID: 2, DisplayName: "Bob", CreatedAt: t.MockClock.Now()},
		{ID: 3, DisplayName: "Carol", CreatedAt: t.MockClock.Now()},
	}
	for _, user := range users {
		if err := t.Storage.SaveUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
