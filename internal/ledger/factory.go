package ledger

import (
	"os"
	"strings"
)

const defaultStartingBalance = 10000

// NewServiceFromEnv selects a backend by the LEDGER_DRIVER environment
// variable: "memory" (default, for tests and local dev), "sqlite", or
// "postgres". It returns the chosen driver name alongside the service so
// callers can log what they got, matching the teacher's
// NewServiceFromEnv(mode) -> (Service, string, error) convention.
func NewServiceFromEnv() (Service, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_DRIVER")))
	switch mode {
	case "", "memory":
		return NewMemoryService(defaultStartingBalance), "memory", nil
	case "sqlite", "local":
		svc, err := NewSQLiteServiceFromEnv()
		if err != nil {
			return nil, "", err
		}
		return svc, "sqlite", nil
	case "postgres":
		svc, err := NewPostgresServiceFromEnv()
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	default:
		return NewMemoryService(defaultStartingBalance), "memory", nil
	}
}
