package store

import "time"

const (
	AssistantTypeRAG            = "rag"
	AssistantTypeClassification = "classification"
)

// Tenant is the root of the isolation graph; every downstream row carries
// its ID and every lookup filters on it.
type Tenant struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Assistant struct {
	ID       string `gorm:"primaryKey" json:"id"`
	TenantID string `gorm:"index;not null" json:"tenant_id"`
	// VectorStoreLocation is nil until the first source is ingested and is
	// never changed afterwards.
	VectorStoreLocation *string   `json:"vector_store_location"`
	LLMModel            string    `json:"llm_model"`
	LLMProvider         string    `json:"llm_provider"`
	EmbeddingModel      string    `json:"embedding_model"`
	EmbeddingProvider   string    `json:"embedding_provider"`
	Type                string    `json:"type"`
	CreatedAt           time.Time `json:"created_at"`
}

// File is one ingested source: an uploaded document or a website URL
// (FileName holds the URL in that case).
type File struct {
	ID                  string    `gorm:"primaryKey" json:"id"`
	FileName            string    `json:"file_name"`
	FileLocation        string    `json:"file_location"`
	AssistantID         string    `gorm:"index;not null" json:"assistant_id"`
	VectorStoreLocation string    `json:"vector_store_location"`
	TenantID            string    `gorm:"index;not null" json:"tenant_id"`
	CreatedAt           time.Time `json:"created_at"`
}

type Thread struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	AssistantID string    `gorm:"index;not null" json:"assistant_id"`
	TenantID    string    `gorm:"index;not null" json:"tenant_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message holds one full turn: MessageText is the JSON-encoded ordered pair
// of Turn values (user then assistant). Rows are append-only.
type Message struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ThreadID    string    `gorm:"index;not null" json:"thread_id"`
	AssistantID string    `gorm:"index;not null" json:"assistant_id"`
	TenantID    string    `gorm:"index;not null" json:"tenant_id"`
	MessageText string    `gorm:"type:text" json:"message_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Turn is one role-tagged entry inside Message.MessageText.
type Turn struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}
