package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned whenever a tenant-scoped lookup does not resolve
// to exactly one row. A row that exists but belongs to another tenant is
// indistinguishable from a missing one.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Tenant{}, &Assistant{}, &File{}, &Thread{}, &Message{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Tenant methods

func (s *Store) CreateTenant(ctx context.Context, id, name string) (*Tenant, error) {
	if id == "" {
		id = uuid.NewString()
	}
	tenant := &Tenant{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, fmt.Errorf("creating tenant: %w", err)
	}
	return tenant, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var tenant Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying tenant: %w", err)
	}
	return &tenant, nil
}

// Assistant methods

func (s *Store) CreateAssistant(ctx context.Context, a *Assistant) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}
	return nil
}

func (s *Store) GetAssistant(ctx context.Context, tenantID, assistantID string) (*Assistant, error) {
	var a Assistant
	err := s.db.WithContext(ctx).
		First(&a, "id = ? AND tenant_id = ?", assistantID, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assistant %s: %w", assistantID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying assistant: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAssistants(ctx context.Context, tenantID string) ([]Assistant, error) {
	var assistants []Assistant
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&assistants).Error
	if err != nil {
		return nil, fmt.Errorf("listing assistants: %w", err)
	}
	return assistants, nil
}

// SetVectorStoreLocation assigns the assistant's store location if it has
// none yet and returns the effective location. The column is written at
// most once; later calls return the original value.
func (s *Store) SetVectorStoreLocation(ctx context.Context, tenantID, assistantID, location string) (string, error) {
	res := s.db.WithContext(ctx).Model(&Assistant{}).
		Where("id = ? AND tenant_id = ? AND vector_store_location IS NULL", assistantID, tenantID).
		Update("vector_store_location", location)
	if res.Error != nil {
		return "", fmt.Errorf("assigning store location: %w", res.Error)
	}

	a, err := s.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return "", err
	}
	if a.VectorStoreLocation == nil {
		return "", fmt.Errorf("store location for assistant %s not assigned", assistantID)
	}
	return *a.VectorStoreLocation, nil
}

// File methods

func (s *Store) CreateFile(ctx context.Context, f *File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("creating file row: %w", err)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, tenantID, assistantID, fileID string) (*File, error) {
	var f File
	err := s.db.WithContext(ctx).
		First(&f, "id = ? AND tenant_id = ? AND assistant_id = ?", fileID, tenantID, assistantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying file: %w", err)
	}
	return &f, nil
}

func (s *Store) ListFiles(ctx context.Context, tenantID, assistantID string) ([]File, error) {
	var files []File
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND assistant_id = ?", tenantID, assistantID).
		Order("created_at ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, tenantID, assistantID, fileID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND assistant_id = ?", fileID, tenantID, assistantID).
		Delete(&File{})
	if res.Error != nil {
		return fmt.Errorf("deleting file row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	return nil
}

// DeleteAssistantCascade removes the assistant row together with all of its
// file, thread and message rows in one transaction. Filesystem and index
// artifacts are the caller's responsibility and must be removed first.
func (s *Store) DeleteAssistantCascade(ctx context.Context, tenantID, assistantID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND assistant_id = ?", tenantID, assistantID).
			Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("deleting messages: %w", err)
		}
		if err := tx.Where("tenant_id = ? AND assistant_id = ?", tenantID, assistantID).
			Delete(&Thread{}).Error; err != nil {
			return fmt.Errorf("deleting threads: %w", err)
		}
		if err := tx.Where("tenant_id = ? AND assistant_id = ?", tenantID, assistantID).
			Delete(&File{}).Error; err != nil {
			return fmt.Errorf("deleting file rows: %w", err)
		}
		res := tx.Where("id = ? AND tenant_id = ?", assistantID, tenantID).Delete(&Assistant{})
		if res.Error != nil {
			return fmt.Errorf("deleting assistant row: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("assistant %s: %w", assistantID, ErrNotFound)
		}
		return nil
	})
}

// Thread methods

func (s *Store) CreateThread(ctx context.Context, t *Thread) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("creating thread: %w", err)
	}
	return nil
}

func (s *Store) ListThreads(ctx context.Context, tenantID, assistantID string) ([]Thread, error) {
	var threads []Thread
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND assistant_id = ?", tenantID, assistantID).
		Order("created_at ASC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	return threads, nil
}

// Message methods

func (s *Store) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit of the thread's newest messages,
// newest first.
func (s *Store) RecentMessages(ctx context.Context, tenantID, threadID string, limit int) ([]Message, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND thread_id = ?", tenantID, threadID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("querying recent messages: %w", err)
	}
	return messages, nil
}

// CountThreadMessages returns the uncapped number of message rows in a
// thread. The classification router compares this against its escalation
// threshold instead of the capped window it formats.
func (s *Store) CountThreadMessages(ctx context.Context, tenantID, threadID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("tenant_id = ? AND thread_id = ?", tenantID, threadID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting thread messages: %w", err)
	}
	return count, nil
}

func (s *Store) ListMessages(ctx context.Context, tenantID, assistantID, threadID string) ([]Message, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND assistant_id = ? AND thread_id = ?", tenantID, assistantID, threadID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}
