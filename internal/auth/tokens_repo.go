package auth

import (
	"context"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"gorm.io/gorm"
)

// TokenRepository persists refresh tokens. A token row is single use: the
// refresh flow deletes the consumed row before issuing a replacement.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository constructs a refresh token repo bound to the provided GORM DB.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *TokenRepository) WithTx(tx *gorm.DB) *TokenRepository {
	return &TokenRepository{db: tx}
}

// Create inserts a refresh token row for the user.
func (r *TokenRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	row := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByToken loads the row matching the exact token string.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByToken removes a single token row and reports whether it existed.
func (r *TokenRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteForUser removes every refresh token issued to the user.
func (r *TokenRepository) DeleteForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// DeleteExpired prunes rows whose expiry has passed.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
