package errors

// ErrorCode identifies an error class in API responses
type ErrorCode int

const (
	ErrorCode_UNSPECIFIED ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED
	ErrorCode_FORBIDDEN
	ErrorCode_INVALID_PAYLOAD

	ErrorCode_AUTH_INVALID_TOKEN
	ErrorCode_AUTH_TOKEN_EXPIRED

	ErrorCode_MEETING_NOT_FOUND
	ErrorCode_VERSION_NOT_FOUND
	ErrorCode_MEETING_INVALID_STATE
	ErrorCode_MEETING_BUSY
	ErrorCode_DELIBERATION_FAILED
	ErrorCode_CHAIR_SYNTHESIS_FAILED
	ErrorCode_NO_ACTIVE_AGENTS
	ErrorCode_CONFIGURATION
	ErrorCode_ATTACHMENT_NOT_FOUND
	ErrorCode_ATTACHMENT_TOO_LARGE

	ErrorCode_AI_SERVICE_UNAVAILABLE
	ErrorCode_AI_QUOTA_EXCEEDED
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED

	ErrorCode_DB_QUERY_FAILED
)

// ErrorCode_HTTP_OK is the code carried by success responses
const ErrorCode_HTTP_OK ErrorCode = 200

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:          "MEETING_NOT_FOUND",
	ErrorCode_VERSION_NOT_FOUND:          "VERSION_NOT_FOUND",
	ErrorCode_MEETING_INVALID_STATE:      "MEETING_INVALID_STATE",
	ErrorCode_MEETING_BUSY:               "MEETING_BUSY",
	ErrorCode_DELIBERATION_FAILED:        "DELIBERATION_FAILED",
	ErrorCode_CHAIR_SYNTHESIS_FAILED:     "CHAIR_SYNTHESIS_FAILED",
	ErrorCode_NO_ACTIVE_AGENTS:           "NO_ACTIVE_AGENTS",
	ErrorCode_CONFIGURATION:              "CONFIGURATION",
	ErrorCode_ATTACHMENT_NOT_FOUND:       "ATTACHMENT_NOT_FOUND",
	ErrorCode_ATTACHMENT_TOO_LARGE:       "ATTACHMENT_TOO_LARGE",
	ErrorCode_AI_SERVICE_UNAVAILABLE:     "AI_SERVICE_UNAVAILABLE",
	ErrorCode_AI_QUOTA_EXCEEDED:          "AI_QUOTA_EXCEEDED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
