package history

import "context"

// SetSchemaVersionForTest overwrites the stored schema version.
func SetSchemaVersionForTest(s *Store, version int) error {
	return s.execWithRetry(context.Background(), "UPDATE schema_version SET version = ?", version)
}
