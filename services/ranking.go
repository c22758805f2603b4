// services/ranking.go
package services

import (
	"errors"
	"fmt"

	"engage-points-system/models"

	"gorm.io/gorm"
)

type RankingService struct {
	DB *gorm.DB
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{DB: db}
}

// Rank returns the user's dense rank by points: 1 + the number of users with
// strictly more points. Computed as the count of users with points >= the
// user's own, which already includes the user and collapses ties onto the
// same value.
func (s *RankingService) Rank(tgID string) (int64, error) {
	var user models.User
	if err := s.DB.Where("tg_id = ?", tgID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user %s", ErrNotFound, tgID)
		}
		return 0, wrapStore(err)
	}

	var rank int64
	if err := s.DB.Model(&models.User{}).Where("points >= ?", user.Points).Count(&rank).Error; err != nil {
		return 0, wrapStore(err)
	}
	return rank, nil
}

// TopN returns up to limit users ordered by points descending. A negative
// limit is clamped to 0; limit 0 is an empty result, not an error.
func (s *RankingService) TopN(limit int) ([]models.User, error) {
	if limit < 0 {
		limit = 0
	}
	if limit == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := s.DB.Order("points DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, wrapStore(err)
	}
	return users, nil
}
