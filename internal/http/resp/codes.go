package resp

const (
	CodeOK            = "ok"
	CodeQueued        = "queued"
	CodeAccepted      = "accepted"
	CodeBadRequest    = "bad_request"
	CodeConflict      = "conflict"
	CodeInternalError = "internal_error"
)
