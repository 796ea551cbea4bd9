package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Logger.Info("No .env file found")
	}

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		logger.Logger.Fatal("DB_URL environment variable is required")
	}

	migrationsPath, err := findMigrationsDir()
	if err != nil {
		logger.Logger.Fatal(err)
	}

	m, err := migrate.New("file://"+migrationsPath, dbUrl)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Logger.Fatal(err)
		}
		logger.Logger.Info("Migration up successful")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Logger.Fatal(err)
		}
		logger.Logger.Info("Migration down successful")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Logger.Fatal(err)
		}
		logger.Logger.WithField("dirty", dirty).Infof("Schema version %d", version)
	case "force":
		if len(os.Args) < 3 {
			logger.Logger.Fatal("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			logger.Logger.Fatalf("invalid version %q", os.Args[2])
		}
		if err := m.Force(version); err != nil {
			logger.Logger.Fatal(err)
		}
		logger.Logger.Infof("Forced schema version %d", version)
	default:
		logger.Logger.Fatalf("unknown command %q (expected up, down, version or force)", cmd)
	}
}

// findMigrationsDir looks for migrations/ above the working directory, then next to the binary.
func findMigrationsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	candidates := []string{}
	current := cwd
	for i := 0; i < 6; i++ {
		candidates = append(candidates, filepath.Join(current, "migrations"))
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", errors.New("migrations directory not found")
}
