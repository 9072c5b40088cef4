package logger

const (
	FieldError      = "error"
	FieldPeerID     = "peer_id"
	FieldFromID     = "from_id"
	FieldUpdateType = "update_type"
	FieldEventID    = "event_id"
	FieldPreview    = "preview"
	FieldTS         = "ts"
	FieldMethod     = "method"
	FieldWorker     = "worker"
)
