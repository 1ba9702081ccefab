package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

// ensureUser makes sure userID exists inside tx, creating it only when a phone is supplied.
func (r *GormRepo) ensureUser(tx *gorm.DB, userID, phone string) (created bool, err error) {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if phone == "" {
		return false, ErrUserMissing
	}

	var owner models.User
	err = tx.Select("id").Where("phone = ?", phone).First(&owner).Error
	switch {
	case err == nil:
		return false, ErrPhoneTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	u := models.User{ID: userID, Phone: phone}
	res := tx.Clauses(r.Dialect.Upsert([]string{"id"}, nil)).Create(&u)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) EnsureUser(ctx context.Context, userID, phone string) (created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = r.ensureUser(tx, userID, phone)
		return err
	})
	return created, err
}

func (r *GormRepo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// LoginUser inserts the user or flips logged_in on the existing row.
func (r *GormRepo) LoginUser(ctx context.Context, userID, phone string) (*models.User, error) {
	var out models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Select("id").Where("phone = ? AND id <> ?", phone, userID).First(&models.User{}).Error
		switch {
		case err == nil:
			return ErrPhoneTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		u := models.User{ID: userID, Phone: phone, LoggedIn: true}
		if err := tx.Clauses(r.Dialect.Upsert([]string{"id"}, clause.Set{
			{Column: clause.Column{Name: "logged_in"}, Value: true},
		})).Create(&u).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GormRepo) SetLoggedIn(ctx context.Context, userID string, loggedIn bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("logged_in", loggedIn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
