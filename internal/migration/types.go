package migration

// Status represents the current state of the Postgres migration runner.
type Status struct {
	CurrentVersion  uint   `json:"current_version"`
	IsDirty         bool   `json:"is_dirty"`
	Status          string `json:"status"` // "healthy", "dirty", "error"
	Error           string `json:"error,omitempty"`
	MigrationsPath  string `json:"migrations_path"`
	TotalMigrations int    `json:"total_migrations"`
}
