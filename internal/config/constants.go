package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./data/novels.db"

	// DefaultRecentLimit is how many novels the landing page shows
	DefaultRecentLimit = 6
)
