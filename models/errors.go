package models

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("asset or staff is already assigned")
	ErrReferenced       = errors.New("still referenced by an assignment")
	ErrInvalidReference = errors.New("asset or staff does not exist")
)

const (
	mysqlErrDupEntry        = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDupEntry
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrRowIsReferenced || mysqlErr.Number == mysqlErrNoReferencedRow
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return true
		}
		// Deleting a still referenced parent (ON DELETE RESTRICT) is reported as a trigger constraint
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			strings.Contains(sqliteErr.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

// parentDeleteError maps a foreign key violation raised while deleting an asset
// or a staff member to ErrReferenced
func parentDeleteError(err error) error {
	if isForeignKeyViolation(err) {
		return ErrReferenced
	}
	return err
}
