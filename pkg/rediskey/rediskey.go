package rediskey

import "fmt"

// Lock keys (global convention across binaries)
const (
	LockPrefix      = "lock"
	RecurringPrefix = "lock:recurring"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildRecurringLockKey returns "lock:recurring:{YYYY-MM}". The monthly run and
// backfill both fill the same month, so they share it.
func BuildRecurringLockKey(period string) string {
	return NamespaceKey(RecurringPrefix, period)
}
