package mapper

import "gift-store-backend/internal/features/user/models"

// ToProfile maps User model to the profile DTO; stars are only exposed on request
func ToProfile(user *models.User, includeStars bool) *models.Profile {
	p := &models.Profile{
		Username:    user.Username,
		AvatarURL:   user.AvatarURL,
		BoughtGifts: user.BoughtGifts,
		SoldGifts:   user.SoldGifts,
	}
	if includeStars {
		stars := user.Stars
		p.Stars = &stars
	}
	return p
}
