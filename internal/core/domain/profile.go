package domain

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type ProfileSettings struct {
	SoundEnabled  bool  `json:"soundEnabled"`
	Theme         Theme `json:"theme"`
	Notifications bool  `json:"notifications"`
	AutoSave      bool  `json:"autoSave"`
}

// DefaultProfileSettings mirrors the settings a fresh profile starts with.
func DefaultProfileSettings() ProfileSettings {
	return ProfileSettings{
		SoundEnabled:  true,
		Theme:         ThemeLight,
		Notifications: true,
		AutoSave:      true,
	}
}

// Profile is the persisted record of the signed-in local user.
type Profile struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Color       string           `json:"color"`
	LoginTime   time.Time        `json:"loginTime"`
	LastUpdated *time.Time       `json:"lastUpdated,omitempty"`
	Settings    *ProfileSettings `json:"settings,omitempty"`
}

// AutoSaveEnabled treats a profile without settings as using defaults.
func (p *Profile) AutoSaveEnabled() bool {
	if p == nil {
		return false
	}
	if p.Settings == nil {
		return DefaultProfileSettings().AutoSave
	}
	return p.Settings.AutoSave
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Color *string `json:"color,omitempty"`
}
