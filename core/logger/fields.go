package logger

import "strings"

// keyOrder puts the fields an operator scans first at the front of a line.
// Keys not listed follow in lexical order.
var keyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler", "cb_key", "outcome", "duration_ms",
	"product_id", "size_id", "filters", "page", "index", "count", "cache",
	"order_status", "receipt_id", "amount", "total", "currency", "charge_id",
	"lang", "endpoint", "http_code", "mode", "listen", "public_url",
	"db", "host", "port", "from", "to",
	"err", "err_code", "retryable", "attempts", "backoff_ms",
}

// enum lists the accepted values of a field. Strict enums drop anything
// else; loose ones keep it as is.
type enum struct {
	values map[string]struct{}
	strict bool
}

func newEnum(strict bool, values ...string) enum {
	e := enum{values: make(map[string]struct{}, len(values)), strict: strict}
	for _, v := range values {
		e.values[v] = struct{}{}
	}
	return e
}

var enums = map[string]enum{
	"status":  newEnum(false, "ok", "fail", "skip", "retry", "rate_limited", "cancelled"),
	"cache":   newEnum(true, "hit", "miss", "refresh"),
	"outcome": newEnum(true, "ok", "fail", "cancelled", "rate_limited"),
}

func levelName(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return "INFO"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	}
	return strings.ToUpper(level)
}

// normalizeEnums lowercases enum fields and removes invalid strict ones.
func normalizeEnums(fields map[string]any) {
	for key, e := range enums {
		raw, ok := fields[key].(string)
		if !ok || raw == "" {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(raw))
		if _, known := e.values[v]; !known && e.strict {
			delete(fields, key)
			continue
		}
		fields[key] = v
	}
}
