package cmd

import (
	"fmt"
	"strings"

	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/persistence/file"
	"github.com/platewise/platewise/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "redis"}

func NewPersistence(databaseURL string) persistence.Persistence {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "redis":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis persistence: %w", err))
		}

		return store
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
