// services/users.go
package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"engage-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// referralCodeAttempts bounds the generate-and-insert retry loop. The code
// space is 16^8 so collisions are astronomically rare; the bound exists so a
// broken unique index can never spin us forever.
const referralCodeAttempts = 5

// userUpdatableFields is the allow-list for PATCH. Points and referral_code
// are system-managed: points move only through task completion, the code is
// fixed at registration. Letting either through here would allow balance
// forgery.
var userUpdatableFields = map[string]bool{
	"name":   true,
	"avatar": true,
	"wallet": true,
}

// userProjectableColumns are the columns a caller may select via the ?field=
// query. Validated against this set so the projection can never inject SQL.
var userProjectableColumns = map[string]bool{
	"id":            true,
	"tg_id":         true,
	"name":          true,
	"points":        true,
	"avatar":        true,
	"wallet":        true,
	"referral_code": true,
	"invited_by":    true,
	"created_at":    true,
	"updated_at":    true,
}

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// CreateUserParams carries registration input. Avatar is the already-resolved
// blob URL; the service never sees file bytes. InvitedBy is stored verbatim
// without checking it resolves to a real referrer.
type CreateUserParams struct {
	Name      string
	TgID      string
	Wallet    *string
	Avatar    *string
	InvitedBy *string
}

// CreateUser registers a new user and issues their referral code. Fails with
// ErrConflict when the tg_id is already registered. Code generation is
// retried on uniqueness violation up to referralCodeAttempts; two concurrent
// registrations racing on the same candidate code both survive, one of them
// on a fresh code.
func (s *UserService) CreateUser(params CreateUserParams) (*models.User, error) {
	if params.Name == "" || params.TgID == "" {
		return nil, fmt.Errorf("%w: name and tg_id are required", ErrInvalidArgument)
	}

	var existing int64
	if err := s.DB.Model(&models.User{}).Where("tg_id = ?", params.TgID).Count(&existing).Error; err != nil {
		return nil, wrapStore(err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: tg_id %s", ErrConflict, params.TgID)
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		user := models.User{
			ID:           uuid.NewString(),
			TgID:         params.TgID,
			Name:         params.Name,
			Avatar:       params.Avatar,
			Wallet:       params.Wallet,
			ReferralCode: generateReferralCode(),
			InvitedBy:    params.InvitedBy,
		}

		err := s.DB.Create(&user).Error
		if err == nil {
			return &user, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The violated index is either tg_id (a racing registration won)
			// or referral_code (candidate collision). Re-check tg_id to tell
			// them apart; only a code collision is retryable.
			var count int64
			if cerr := s.DB.Model(&models.User{}).Where("tg_id = ?", params.TgID).Count(&count).Error; cerr != nil {
				return nil, wrapStore(cerr)
			}
			if count > 0 {
				return nil, fmt.Errorf("%w: tg_id %s", ErrConflict, params.TgID)
			}
			continue
		}
		return nil, wrapStore(err)
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrCodeSpaceExhausted, referralCodeAttempts)
}

// GetUser fetches a user by tg_id, optionally projected to a subset of
// columns. Unknown columns are rejected rather than ignored.
func (s *UserService) GetUser(tgID string, fields []string) (*models.User, error) {
	query := s.DB.Where("tg_id = ?", tgID)
	if len(fields) > 0 {
		for _, f := range fields {
			if !userProjectableColumns[f] {
				return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, f)
			}
		}
		query = query.Select(fields)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, tgID)
		}
		return nil, wrapStore(err)
	}
	return &user, nil
}

// UpdateUserFields applies a partial update restricted to the allow-list.
// Any attempt to touch points, referral_code or the identity keys is an
// ErrInvalidArgument, not a silent drop.
func (s *UserService) UpdateUserFields(tgID string, fields map[string]interface{}) (*models.User, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidArgument)
	}
	for key := range fields {
		if !userUpdatableFields[key] {
			return nil, fmt.Errorf("%w: field %q is not updatable", ErrInvalidArgument, key)
		}
	}

	res := s.DB.Model(&models.User{}).Where("tg_id = ?", tgID).Updates(fields)
	if res.Error != nil {
		return nil, wrapStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, tgID)
	}

	return s.GetUser(tgID, nil)
}

// CountReferrals returns how many users registered with this user's referral
// code in invited_by.
func (s *UserService) CountReferrals(tgID string) (int64, error) {
	user, err := s.GetUser(tgID, nil)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("invited_by = ?", user.ReferralCode).Count(&count).Error; err != nil {
		return 0, wrapStore(err)
	}
	return count, nil
}

// ListReferrals returns the full records of the users this user invited.
func (s *UserService) ListReferrals(tgID string) ([]models.User, error) {
	user, err := s.GetUser(tgID, nil)
	if err != nil {
		return nil, err
	}

	var referred []models.User
	if err := s.DB.Where("invited_by = ?", user.ReferralCode).Order("created_at ASC").Find(&referred).Error; err != nil {
		return nil, wrapStore(err)
	}
	return referred, nil
}

// generateReferralCode returns an 8-character hex code from 4 random bytes.
func generateReferralCode() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; nothing
		// sensible to fall back to.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
