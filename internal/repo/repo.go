package repo

import (
	"errors"

	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
)

var (
	ErrUserMissing    = errors.New("user does not exist")
	ErrProductMissing = errors.New("product does not exist")
	ErrPhoneTaken     = errors.New("phone belongs to another user")
	ErrNothingSeeded  = errors.New("no catalog rows were inserted")
)

type GormRepo struct {
	DB      *gorm.DB
	Dialect pkgdb.Dialect
}

func New(st *pkgdb.Store) *GormRepo {
	return &GormRepo{DB: st.DB, Dialect: st.Dialect}
}
