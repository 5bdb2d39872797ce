package database

// StoredSecret reads the secret column as written, nil when none was set.
func (s *SQLiteStore) StoredSecret(email string) ([]byte, error) {
	var secret []byte
	err := s.db.QueryRow(`SELECT secret FROM account WHERE email=?`, email).Scan(&secret)
	return secret, err
}

var IsUniqueViolation = isUniqueViolation

// ExecRaw runs query against the underlying handle.
func (s *SQLiteStore) ExecRaw(query string, args ...any) error {
	_, err := s.db.Exec(query, args...)
	return err
}
