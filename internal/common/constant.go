package common

// AccessTokenHeaderName is the gRPC metadata key carrying the caller's JWT.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is the response header echoing the server-side
// request id, for matching client errors with server logs.
const RequestIDHeaderName = "x-request-id"
