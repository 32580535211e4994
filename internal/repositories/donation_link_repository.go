package repositories

import (
	"errors"

	"ngo_backend/internal/models"

	"gorm.io/gorm"
)

type DonationLinkRepository interface {
	FindBySlug(db *gorm.DB, slug string) (*models.DonationLink, error)
	FindByID(db *gorm.DB, id string) (*models.DonationLink, error)
}

type DonationLinkRepositoryImpl struct{}

func NewDonationLinkRepository() DonationLinkRepository {
	return &DonationLinkRepositoryImpl{}
}

func (r *DonationLinkRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.DonationLink, error) {
	return r.findOne(db, "slug = ?", slug)
}

func (r *DonationLinkRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.DonationLink, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *DonationLinkRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.DonationLink, error) {
	var link models.DonationLink
	if err := db.Where(query, arg).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}
