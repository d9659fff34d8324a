package store

import "database/sql"

// SetMetadata upserts a key-value pair in the quiz_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO quiz_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM quiz_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetImportedFileHash returns the recorded content hash for a questions file.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	return s.GetMetadata("imported:" + path)
}

// SetImportedFileHash records the content hash of an imported questions file
// so unchanged files are skipped on the next start.
func (s *Store) SetImportedFileHash(path, hash string) error {
	return s.SetMetadata("imported:"+path, hash)
}
