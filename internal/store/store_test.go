package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s, err := New(db)
	require.NoError(t, err)
	return s
}

func seedAssistant(t *testing.T, s *Store, tenantID string) *Assistant {
	t.Helper()
	_, err := s.CreateTenant(context.Background(), tenantID, tenantID)
	require.NoError(t, err)
	a := &Assistant{TenantID: tenantID, Type: AssistantTypeRAG}
	require.NoError(t, s.CreateAssistant(context.Background(), a))
	return a
}

func TestCreateTenantGeneratesID(t *testing.T) {
	s := newTestStore(t)

	tenant, err := s.CreateTenant(context.Background(), "", "acme")
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.ID)

	got, err := s.GetTenant(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
}

func TestGetAssistantScopedToTenant(t *testing.T) {
	s := newTestStore(t)
	a := seedAssistant(t, s, "tenant-a")
	_, err := s.CreateTenant(context.Background(), "tenant-b", "b")
	require.NoError(t, err)

	got, err := s.GetAssistant(context.Background(), "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.GetAssistant(context.Background(), "tenant-b", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetVectorStoreLocationAssignsOnce(t *testing.T) {
	s := newTestStore(t)
	a := seedAssistant(t, s, "tenant-a")

	first, err := s.SetVectorStoreLocation(context.Background(), "tenant-a", a.ID, "data/a/store")
	require.NoError(t, err)
	assert.Equal(t, "data/a/store", first)

	second, err := s.SetVectorStoreLocation(context.Background(), "tenant-a", a.ID, "data/other/store")
	require.NoError(t, err)
	assert.Equal(t, "data/a/store", second, "location never changes after first assignment")
}

func TestFileLifecycleScopedToTenant(t *testing.T) {
	s := newTestStore(t)
	a := seedAssistant(t, s, "tenant-a")
	_, err := s.CreateTenant(context.Background(), "tenant-b", "b")
	require.NoError(t, err)

	f := &File{FileName: "doc.pdf", FileLocation: "data/x", AssistantID: a.ID, TenantID: "tenant-a"}
	require.NoError(t, s.CreateFile(context.Background(), f))

	files, err := s.ListFiles(context.Background(), "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	other, err := s.ListFiles(context.Background(), "tenant-b", a.ID)
	require.NoError(t, err)
	assert.Empty(t, other)

	err = s.DeleteFile(context.Background(), "tenant-b", a.ID, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteFile(context.Background(), "tenant-a", a.ID, f.ID))
	err = s.DeleteFile(context.Background(), "tenant-a", a.ID, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAssistantCascadeRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedAssistant(t, s, "tenant-a")
	other := seedAssistant(t, s, "tenant-b")

	require.NoError(t, s.CreateFile(ctx, &File{FileName: "doc", AssistantID: a.ID, TenantID: "tenant-a"}))
	thread := &Thread{AssistantID: a.ID, TenantID: "tenant-a"}
	require.NoError(t, s.CreateThread(ctx, thread))
	require.NoError(t, s.CreateMessage(ctx, &Message{ThreadID: thread.ID, AssistantID: a.ID, TenantID: "tenant-a", MessageText: "[]"}))

	otherThread := &Thread{AssistantID: other.ID, TenantID: "tenant-b"}
	require.NoError(t, s.CreateThread(ctx, otherThread))

	require.NoError(t, s.DeleteAssistantCascade(ctx, "tenant-a", a.ID))

	_, err := s.GetAssistant(ctx, "tenant-a", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := s.ListFiles(ctx, "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	threads, err := s.ListThreads(ctx, "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Empty(t, threads)

	count, err := s.CountThreadMessages(ctx, "tenant-a", thread.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// the other tenant is untouched
	remaining, err := s.ListThreads(ctx, "tenant-b", other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteAssistantCascadeMissingAssistant(t *testing.T) {
	s := newTestStore(t)
	seedAssistant(t, s, "tenant-a")

	err := s.DeleteAssistantCascade(context.Background(), "tenant-a", "no-such-assistant")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentMessagesWindowAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedAssistant(t, s, "tenant-a")
	thread := &Thread{AssistantID: a.ID, TenantID: "tenant-a"}
	require.NoError(t, s.CreateThread(ctx, thread))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateMessage(ctx, &Message{
			ThreadID:    thread.ID,
			AssistantID: a.ID,
			TenantID:    "tenant-a",
			MessageText: "[]",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := s.RecentMessages(ctx, "tenant-a", thread.ID, 3)
	require.NoError(t, err)

	require.Len(t, recent, 3)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))
	assert.True(t, recent[1].CreatedAt.After(recent[2].CreatedAt))
	assert.Equal(t, base.Add(4*time.Minute), recent[0].CreatedAt.UTC())

	count, err := s.CountThreadMessages(ctx, "tenant-a", thread.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestListMessagesChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedAssistant(t, s, "tenant-a")
	thread := &Thread{AssistantID: a.ID, TenantID: "tenant-a"}
	require.NoError(t, s.CreateThread(ctx, thread))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateMessage(ctx, &Message{
			ThreadID:    thread.ID,
			AssistantID: a.ID,
			TenantID:    "tenant-a",
			MessageText: "[]",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := s.ListMessages(ctx, "tenant-a", a.ID, thread.ID)
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, base, messages[0].CreatedAt.UTC())
	assert.Equal(t, base.Add(2*time.Minute), messages[2].CreatedAt.UTC())
}
