package redis

import "strings"

// Every key this service writes lives under "gc:".
const (
	keyNamespace      = "gc"
	idempotencyPrefix = "idempotency"
	lockPrefix        = "lock"
)

// IdempotencyKey -> gc:idempotency:<scope>:<id>
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

// LockKey -> gc:lock:<name>
func (c *Client) LockKey(name string) string {
	return joinKey(lockPrefix, name)
}

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
