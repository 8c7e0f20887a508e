// Command reseed clears the trip catalog and the user accounts, then loads
// the trips from a seed file and creates the default admin and test users.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"travlr/config"
	"travlr/logging"
	"travlr/models"
	"travlr/services"
	"travlr/store"
	"travlr/utils"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type seedTrip struct {
	Code        string  `yaml:"code"`
	Name        string  `yaml:"name"`
	Length      string  `yaml:"length"`
	Start       string  `yaml:"start"`
	Resort      string  `yaml:"resort"`
	PerPerson   float64 `yaml:"perPerson"`
	Image       string  `yaml:"image"`
	Description string  `yaml:"description"`
	Category    string  `yaml:"category"`
}

type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

var defaultUsers = []seedUser{
	{Name: "Admin User", Email: "admin@travlr.com", Password: "admin1234", Role: models.RoleAdmin},
	{Name: "Test User", Email: "user@travlr.com", Password: "user1234", Role: models.RoleUser},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Reseed failed: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	trips, err := parseSeed(data)
	if err != nil {
		return err
	}

	if cfg.Database.Driver != config.DriverMongo {
		return fmt.Errorf("reseed needs the mongo driver, got %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := utils.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	st := store.NewMongo(client.Database(cfg.Database.Name))
	if err := st.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	auth := services.NewAuthService(st, nil, utils.PasswordHasher{Iterations: cfg.Auth.PBKDF2Iterations}, nil, cfg.Database.Timeout, logger)

	return reseed(ctx, st, auth, trips, os.Stdout, logger)
}

// parseSeed reads the trips list of a seed file
func parseSeed(data []byte) ([]models.Trip, error) {
	var seed struct {
		Trips []seedTrip `yaml:"trips"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	trips := make([]models.Trip, 0, len(seed.Trips))
	for _, t := range seed.Trips {
		start, err := utils.ParseDate(t.Start)
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", t.Code, err)
		}
		if t.Category == "" {
			t.Category = models.CategoryOther
		}
		if !models.ValidCategory(t.Category) {
			return nil, fmt.Errorf("trip %s: unknown category %q", t.Code, t.Category)
		}
		trips = append(trips, models.Trip{
			Code:        t.Code,
			Name:        t.Name,
			Length:      t.Length,
			Start:       start,
			Resort:      t.Resort,
			PerPerson:   t.PerPerson,
			Image:       t.Image,
			Description: t.Description,
			Category:    t.Category,
		})
	}
	return trips, nil
}

type reseedStore interface {
	store.TripStore
	store.UserStore
}

func reseed(ctx context.Context, st reseedStore, auth *services.AuthService, trips []models.Trip, out io.Writer, logger *zerolog.Logger) error {
	if err := st.ReplaceTrips(ctx, trips); err != nil {
		return fmt.Errorf("replace trips: %w", err)
	}
	fmt.Fprintf(out, "Trips: cleared and inserted %d trips\n", len(trips))
	for _, t := range trips {
		fmt.Fprintf(out, "   - %s ($%.2f) [%s]\n", t.Name, t.PerPerson, t.Category)
	}

	if err := st.DeleteAllUsers(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	for _, u := range defaultUsers {
		user, err := auth.NewUser(u.Name, u.Email, u.Password, u.Role)
		if err != nil {
			return err
		}
		if err := st.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create %s: %w", u.Email, err)
		}
		fmt.Fprintf(out, "%s user created: %s / %s\n", u.Role, u.Email, u.Password)
	}

	logger.Info().Int("trips", len(trips)).Int("users", len(defaultUsers)).Msg("reseed complete")
	return nil
}
