// Package metrics registers the prometheus collectors exported on /metrics.
package metrics

const namespace = "greencredits"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
