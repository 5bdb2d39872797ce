package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
)

const selectUser = `
	SELECT id, name, email, status, created
	FROM account a
	WHERE a.email=?
	`

func (s *SQLiteStore) InsertUser(
	name string,
	email string,
	secret []byte,
) (
	*service.User,
	error,
) {
	created := time.Now().Unix()
	result, err := s.db.Exec(`
		INSERT INTO account (name, email, secret, status, created)
		VALUES (?, ?, ?, ?, ?)
		`,
		name,
		email,
		secret,
		service.StatusActive,
		created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("couldn't insert into account: %w", service.ErrEmailExists)
		}
		return nil, fmt.Errorf("couldn't insert into account: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("couldn't read account id: %v", err)
	}
	log.Debug().Int64("uid", id).Msg("insert into account")

	return &service.User{
		UID:     strconv.FormatInt(id, 10),
		Name:    name,
		Email:   email,
		Status:  service.StatusActive,
		Created: time.Unix(created, 0),
	}, nil
}

func (s *SQLiteStore) GetUserByEmail(email string) (*service.User, error) {
	return scanUser(s.db.QueryRow(selectUser, email))
}

func (s *SQLiteStore) UpdateUser(
	email string,
	update service.UserUpdate,
) (
	*service.User,
	error,
) {
	var (
		sets []string
		args []any
	)
	if update.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *update.Name)
	}
	if update.Secret != nil {
		sets = append(sets, "secret=?")
		args = append(args, update.Secret)
	}
	if len(sets) == 0 {
		return s.GetUserByEmail(email)
	}

	args = append(args, email)
	query := fmt.Sprintf("UPDATE account SET %s WHERE email=?", strings.Join(sets, ", "))
	if err := s.execOnUser(query, args...); err != nil {
		return nil, err
	}
	return s.GetUserByEmail(email)
}

func (s *SQLiteStore) SetUserStatus(
	email string,
	status int,
) (
	*service.User,
	error,
) {
	if err := s.execOnUser("UPDATE account SET status=? WHERE email=?", status, email); err != nil {
		return nil, err
	}
	return s.GetUserByEmail(email)
}

func (s *SQLiteStore) execOnUser(query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("couldn't update account: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("couldn't update account: %v", err)
	}
	if affected == 0 {
		return fmt.Errorf("couldn't update account: %w", sql.ErrNoRows)
	}
	return nil
}

func scanUser(row *sql.Row) (*service.User, error) {
	var (
		id      int64
		user    service.User
		created int64
	)
	if err := row.Scan(&id, &user.Name, &user.Email, &user.Status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("couldn't read account: %v", err)
	}
	user.UID = strconv.FormatInt(id, 10)
	user.Created = time.Unix(created, 0)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
