package dispatch

import "github.com/orghub-api/internal/domain"

// Eligible reports whether the user should receive push for the category.
// Preferences are opt-out: a missing preference object or an unset flag means
// allowed. An explicit global push=false disables every category.
func Eligible(category domain.Category, u domain.User) bool {
	p := u.Preferences
	if p == nil {
		return true
	}
	if p.Push != nil && !*p.Push {
		return false
	}
	if flag := p.ForCategory(category); flag != nil && !*flag {
		return false
	}
	return true
}
