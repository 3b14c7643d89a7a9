package domain

import "time"

// EngineStatus is a pull-based view over the engine state; callers poll it
// after each operation instead of subscribing to change notifications.
type EngineStatus struct {
	Indexed             bool   `json:"indexed"`
	ChunkCount          int    `json:"chunk_count"`
	DataFolder          string `json:"data_folder,omitempty"`
	SelectedModel       string `json:"selected_model"`
	IngestionInProgress bool   `json:"ingestion_in_progress"`
}

type IngestReport struct {
	Success           bool     `json:"success"`
	FilesProcessed    int      `json:"files_processed"`
	FilesFailed       int      `json:"files_failed"`
	DocumentsIngested int      `json:"documents_ingested"`
	RowsDropped       int      `json:"rows_dropped"`
	Message           string   `json:"message"`
	Warnings          []string `json:"warnings,omitempty"`
}

type ServiceStatus struct {
	Running           bool   `json:"running"`
	HasEmbeddingModel bool   `json:"has_embedding_model"`
	ChatModelCount    int    `json:"chat_model_count"`
	Message           string `json:"message"`
}

type ModelInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}
