package config

// GetOrderArchiveDir returns the directory finalized orders are written to
// as JSON files, empty to disable file output.
func GetOrderArchiveDir() string {
	return GetEnvOrDefault("ORDER_ARCHIVE_DIR", "")
}
