package users

import "time"

type User struct {
	ID           string    `json:"-"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"-"`
	Location     string    `json:"location"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	JoinDate     time.Time `json:"join_date"`
	UpdatedAt    time.Time `json:"-"`
}

type Profile struct {
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	JoinDate  time.Time `json:"join_date"`
	Location  string    `json:"location"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	Stats     Stats     `json:"stats"`
}

type Stats struct {
	ReportedLost  int `json:"reported_lost"`
	ReportedFound int `json:"reported_found"`
	ItemsResolved int `json:"items_resolved"`
}

type NotificationSettings struct {
	EmailEnabled    bool `json:"email_enabled"`
	PushEnabled     bool `json:"push_enabled"`
	LostItemAlerts  bool `json:"lost_item_alerts"`
	FoundItemAlerts bool `json:"found_item_alerts"`
	MessageAlerts   bool `json:"message_alerts"`
}

type PrivacySettings struct {
	ShowEmail     bool `json:"show_email"`
	ShowPhone     bool `json:"show_phone"`
	ShowLocation  bool `json:"show_location"`
	AllowMessages bool `json:"allow_messages"`
}

type DisplaySettings struct {
	Theme             string `json:"theme"`
	Language          string `json:"language"`
	CompactView       bool   `json:"compact_view"`
	ShowResolvedItems bool   `json:"show_resolved_items"`
}

type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
	Display       DisplaySettings      `json:"display"`
}

func defaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{
			EmailEnabled:    true,
			PushEnabled:     true,
			LostItemAlerts:  true,
			FoundItemAlerts: true,
			MessageAlerts:   true,
		},
		Privacy: PrivacySettings{
			ShowEmail:     true,
			ShowPhone:     true,
			ShowLocation:  true,
			AllowMessages: true,
		},
		Display: DisplaySettings{
			Theme:             "light",
			Language:          "en",
			CompactView:       false,
			ShowResolvedItems: true,
		},
	}
}
