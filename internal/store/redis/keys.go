package redis

import "fmt"

const (
	// KeyTimeout holds the per-check timeout in milliseconds
	KeyTimeout = "deadmark:settings:timeout"
	// KeyHasScanned is set once the first scan completed
	KeyHasScanned = "deadmark:settings:has_scanned"
	// KeyPrefixReport is the prefix for scan report keys
	KeyPrefixReport = "deadmark:report:"
	// KeyLastReport holds a copy of the most recent report
	KeyLastReport = "deadmark:report:last"
	// KeyReportIndex is the sorted set of report IDs scored by finish time
	KeyReportIndex = "deadmark:reports:all"
	// KeyTree holds the last loaded bookmark tree
	KeyTree = "deadmark:tree"
)

// ReportKey returns the Redis key for a report by ID
func ReportKey(id string) string {
	return KeyPrefixReport + id
}

// ExtractReportID extracts the report ID from a Redis key
func ExtractReportID(key string) (string, error) {
	if len(key) <= len(KeyPrefixReport) {
		return "", fmt.Errorf("invalid report key: %s", key)
	}
	return key[len(KeyPrefixReport):], nil
}
