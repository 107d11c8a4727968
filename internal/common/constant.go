package common

// ApplicationName is reported to PostgreSQL as application_name and used as
// the service name in logs.
const ApplicationName = "ogpblog"

// CacheKeyPrefix namespaces every key the server writes to Redis.
const CacheKeyPrefix = ApplicationName + ":"

// RequestIDHeaderName carries the request id on inbound and outbound HTTP
// responses.
const RequestIDHeaderName = "X-Request-ID"
