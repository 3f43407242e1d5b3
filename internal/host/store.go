package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agentx-labs/gmrestore/internal/logging"
	"github.com/agentx-labs/gmrestore/internal/userscript"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scripts (
  uuid          TEXT PRIMARY KEY,
  namespace     TEXT NOT NULL,
  name          TEXT NOT NULL,
  version       TEXT NOT NULL DEFAULT '',
  description   TEXT NOT NULL DEFAULT '',
  download_url  TEXT NOT NULL,
  enabled       INTEGER NOT NULL CHECK (enabled IN (0,1)),
  content       TEXT NOT NULL,
  installed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(namespace, name)
);
CREATE TABLE IF NOT EXISTS script_requires (
  script_uuid TEXT NOT NULL REFERENCES scripts(uuid) ON DELETE CASCADE,
  url         TEXT NOT NULL,
  content     TEXT NOT NULL,
  PRIMARY KEY (script_uuid, url)
);
CREATE TABLE IF NOT EXISTS script_resources (
  script_uuid TEXT NOT NULL REFERENCES scripts(uuid) ON DELETE CASCADE,
  url         TEXT NOT NULL,
  content     BLOB NOT NULL,
  PRIMARY KEY (script_uuid, url)
);
`

// Store is a script host persisted in SQLite.
type Store struct {
	sql    *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the store at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening script store %s: %w", path, err)
	}
	// One writer at a time; detached uninstalls share this handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening script store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating script store schema: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{sql: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// ListUserScripts implements Messenger.
func (s *Store) ListUserScripts(ctx context.Context, includeDisabled bool) ([]Script, error) {
	query := "SELECT uuid, namespace, name, version, description, download_url, enabled FROM scripts"
	if !includeDisabled {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY namespace, name"

	rows, err := s.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing scripts: %w", err)
	}
	defer rows.Close()

	var scripts []Script
	for rows.Next() {
		var sc Script
		var enabled int
		if err := rows.Scan(&sc.UUID, &sc.ID.Namespace, &sc.ID.Name, &sc.Version, &sc.Description, &sc.DownloadURL, &enabled); err != nil {
			return nil, fmt.Errorf("listing scripts: %w", err)
		}
		sc.Enabled = enabled == 1
		scripts = append(scripts, sc)
	}
	return scripts, rows.Err()
}

// Uninstall implements Messenger.
func (s *Store) Uninstall(ctx context.Context, id string) error {
	res, err := s.sql.ExecContext(ctx, "DELETE FROM scripts WHERE uuid = ?", id)
	if err != nil {
		return fmt.Errorf("uninstalling %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("uninstalling %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("uninstalling %s: %w", id, ErrNotInstalled)
	}
	return nil
}

// Lookup returns the installed script with the given identity.
func (s *Store) Lookup(ctx context.Context, id userscript.Identity) (Script, error) {
	row := s.sql.QueryRowContext(ctx,
		"SELECT uuid, version, description, download_url, enabled FROM scripts WHERE namespace = ? AND name = ?",
		id.Namespace, id.Name)

	sc := Script{ID: id}
	var enabled int
	err := row.Scan(&sc.UUID, &sc.Version, &sc.Description, &sc.DownloadURL, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return Script{}, fmt.Errorf("%s: %w", id, ErrNotInstalled)
	}
	if err != nil {
		return Script{}, fmt.Errorf("looking up %s: %w", id, err)
	}
	sc.Enabled = enabled == 1
	return sc, nil
}

// Requires returns the stored @require content of an installed script.
func (s *Store) Requires(ctx context.Context, scriptUUID string) (map[string]string, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT url, content FROM script_requires WHERE script_uuid = ?", scriptUUID)
	if err != nil {
		return nil, fmt.Errorf("reading requires of %s: %w", scriptUUID, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var u, c string
		if err := rows.Scan(&u, &c); err != nil {
			return nil, err
		}
		out[u] = c
	}
	return out, rows.Err()
}

// Resources returns the stored @resource payloads of an installed script.
func (s *Store) Resources(ctx context.Context, scriptUUID string) (map[string][]byte, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT url, content FROM script_resources WHERE script_uuid = ?", scriptUUID)
	if err != nil {
		return nil, fmt.Errorf("reading resources of %s: %w", scriptUUID, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var u string
		var c []byte
		if err := rows.Scan(&u, &c); err != nil {
			return nil, err
		}
		out[u] = c
	}
	return out, rows.Err()
}

// Install implements Installer. A script whose identity is already installed
// is replaced in place and keeps its uuid.
func (s *Store) Install(ctx context.Context, pkg Package) (sc Script, err error) {
	if pkg.Details == nil {
		return Script{}, errors.New("installing script: package has no parsed details")
	}
	id := pkg.Details.ID()
	if strings.TrimSpace(id.Name) == "" {
		return Script{}, fmt.Errorf("installing %s: script has no name", pkg.DownloadURL)
	}

	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return Script{}, fmt.Errorf("installing %s: %w", id, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingUUID, existingVersion string
	err = tx.QueryRowContext(ctx, "SELECT uuid, version FROM scripts WHERE namespace = ? AND name = ?",
		id.Namespace, id.Name).Scan(&existingUUID, &existingVersion)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existingUUID = ""
		err = nil
	case err != nil:
		return Script{}, fmt.Errorf("installing %s: %w", id, err)
	}

	enabled := boolToInt(!pkg.Disabled)
	sc = Script{
		ID:          id,
		Version:     pkg.Details.Version,
		Description: pkg.Details.Description,
		DownloadURL: pkg.DownloadURL,
		Enabled:     !pkg.Disabled,
	}

	if existingUUID == "" {
		sc.UUID = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scripts(uuid, namespace, name, version, description, download_url, enabled, content) VALUES(?,?,?,?,?,?,?,?)`,
			sc.UUID, id.Namespace, id.Name, sc.Version, sc.Description, sc.DownloadURL, enabled, pkg.Content)
		if err != nil {
			return Script{}, fmt.Errorf("installing %s: %w", id, err)
		}
	} else {
		sc.UUID = existingUUID
		s.warnOnDowngrade(pkg.Details, existingVersion)
		_, err = tx.ExecContext(ctx,
			`UPDATE scripts SET version = ?, description = ?, download_url = ?, enabled = ?, content = ?, installed_at = CURRENT_TIMESTAMP WHERE uuid = ?`,
			sc.Version, sc.Description, sc.DownloadURL, enabled, pkg.Content, sc.UUID)
		if err != nil {
			return Script{}, fmt.Errorf("reinstalling %s: %w", id, err)
		}
		for _, table := range []string{"script_requires", "script_resources"} {
			if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE script_uuid = ?", sc.UUID); err != nil {
				return Script{}, fmt.Errorf("reinstalling %s: %w", id, err)
			}
		}
	}

	for u, content := range pkg.Requires {
		if _, err = tx.ExecContext(ctx, "INSERT INTO script_requires(script_uuid, url, content) VALUES(?,?,?)", sc.UUID, u, content); err != nil {
			return Script{}, fmt.Errorf("storing require %s of %s: %w", u, id, err)
		}
	}
	for u, content := range pkg.Resources {
		if content == nil {
			content = []byte{}
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO script_resources(script_uuid, url, content) VALUES(?,?,?)", sc.UUID, u, content); err != nil {
			return Script{}, fmt.Errorf("storing resource %s of %s: %w", u, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return Script{}, fmt.Errorf("installing %s: %w", id, err)
	}
	return sc, nil
}

// warnOnDowngrade logs when a reinstall replaces a newer version.
func (s *Store) warnOnDowngrade(details *userscript.Details, installed string) {
	if installed == "" || details.Version == "" {
		return
	}
	iv, err := userscript.ParseVersion(installed)
	if err != nil {
		return
	}
	nv, err := details.SemVer()
	if err != nil {
		return
	}
	if nv.LessThan(iv) {
		s.logger.Warn("replacing script with an older version",
			"script", details.ID().String(), "installed", installed, "incoming", details.Version)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
