package config

import "os"

type Features struct {
	AdminAuthEnabled     bool
	NotificationsEnabled bool
}

func LoadFeatures() Features {
	return Features{
		AdminAuthEnabled:     os.Getenv("ADMIN_AUTH_ENABLED") == "true",
		NotificationsEnabled: os.Getenv("NOTIFICATIONS_ENABLED") == "true",
	}
}
