package store

// NewServiceFromEnv selects a backend using the same driver name the
// ledger chose (so a single deployment's durable state lives in one
// place), matching the teacher's NewServiceFromEnv(mode) convention.
func NewServiceFromEnv(driver string) (Service, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteServiceFromEnv()
	case "postgres":
		return NewPostgresServiceFromEnv()
	default:
		return NewMemoryService(), nil
	}
}
