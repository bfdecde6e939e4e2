package model

// EventName identifies an observability event emitted by the media service.
type EventName string

const (
	EventUploadCompleted   EventName = "upload_completed"
	EventUploadRejected    EventName = "upload_rejected"
	EventCacheWriteFailed  EventName = "cache_write_failed"
	EventCachePopulated    EventName = "cache_populated"
	EventCachePopulateSkip EventName = "cache_populate_skipped"
	EventPublishFailed     EventName = "event_publish_failed"
	EventStorageFailed     EventName = "storage_failed"
)

// Event is a single observation handed to the recorder. Err is set for failures.
type Event struct {
	Name   EventName
	Key    string
	Size   int64
	Reason string
	Err    error
}
