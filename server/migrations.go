package server

// migrate runs database migrations
func (s *PGStore) migrate() error {
	migrations := []string{
		migrationAuthUsers,
		migrationDocuments,
		migrationObjects,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

const migrationAuthUsers = `
CREATE TABLE IF NOT EXISTS auth_users (
    id TEXT PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_auth_users_email ON auth_users(lower(email));
`

const migrationDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    seq BIGSERIAL,
    tbl TEXT NOT NULL,
    id TEXT NOT NULL,
    body JSONB NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT NOW(),
    PRIMARY KEY (tbl, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_tbl_seq ON documents(tbl, seq);
`

const migrationObjects = `
CREATE TABLE IF NOT EXISTS objects (
    bucket TEXT NOT NULL,
    name TEXT NOT NULL,
    content_type TEXT NOT NULL,
    data BYTEA NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT NOW(),
    PRIMARY KEY (bucket, name)
);
`
