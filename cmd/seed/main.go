// Command seed populates a rainbow database with sellers, listings of every
// kind and a spread of reviews. Reviews go through ReviewService so every
// listing ends up with a consistent rating aggregate.
//
// Run: go run ./cmd/seed -listings 20 -reviews 8
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jubmeng/rainbow/internal/auth"
	"github.com/jubmeng/rainbow/internal/config"
	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/repository/postgres"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/migrations"
	pkgconfig "github.com/jubmeng/rainbow/pkg/config"
	"github.com/jubmeng/rainbow/pkg/database"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
	"github.com/jubmeng/rainbow/pkg/logger"
)

const seedPassword = "rainbow123"

var listingNames = map[domain.ProductKind][]string{
	domain.KindClinic:      {"Happy Paws Clinic", "Sukhumvit Animal Hospital", "Ari Vet Care", "Thonglor Pet Clinic", "Riverside Veterinary"},
	domain.KindService:     {"Fluffy Grooming", "Dog Walkers BKK", "Purrfect Pet Hotel", "Pet Taxi Express", "Bark & Bath Spa"},
	domain.KindPetFriendly: {"Woof Cafe", "Paws Park Ekkamai", "Sunday Brunch House", "Pet Friendly Co-working", "Lakeside Beer Garden"},
}

var comments = []string{
	"Friendly staff and very clean.",
	"Took good care of my dog.",
	"A bit pricey but worth it.",
	"Long wait, average service.",
	"Would not come back.",
	"",
}

// seedEvents logs events instead of publishing them; seeding needs no broker.
type seedEvents struct {
	logger *slog.Logger
}

func (e seedEvents) PublishReviewCreated(ctx context.Context, data domain.ReviewCreated) error {
	e.logger.DebugContext(ctx, "review created", slog.String("review_id", data.ReviewID))
	return nil
}

func (e seedEvents) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	e.logger.DebugContext(ctx, "user registered", slog.String("user_id", user.ID))
	return nil
}

func (e seedEvents) PublishPasswordReset(context.Context, domain.PasswordResetRequested) error {
	return nil
}

func main() {
	listingsPerKind := flag.Int("listings", len(listingNames[domain.KindClinic]), "listings to create per kind")
	reviewsPerListing := flag.Int("reviews", 5, "maximum reviews per listing")
	reviewers := flag.Int("reviewers", 10, "reviewer accounts to create")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("rainbow-seed", cfg.LogLevel)

	if err := run(cfg, log, *listingsPerKind, *reviewsPerListing, *reviewers, *seed); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, listingsPerKind, reviewsPerListing, reviewerCount int, seed int64) error {
	if reviewerCount < 1 {
		return errors.New("at least one reviewer is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 4,
		MinConns: 1,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	events := seedEvents{logger: log}
	userRepo := postgres.NewUserRepository(pool)
	listingRepo := postgres.NewListingRepository(pool)
	users := service.NewUserService(userRepo, nil,
		auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry),
		auth.NewPasswordHasher(cfg.BcryptCost), events, log)
	listings := service.NewListingService(listingRepo, userRepo, log)
	reviews := service.NewReviewService(postgres.NewReviewRepository(pool), events, prometheus.NewRegistry(), log)

	seller, err := ensureUser(ctx, users, "seller")
	if err != nil {
		return err
	}
	if err := users.SetSeller(ctx, seller.ID, seller.ID); err != nil {
		return fmt.Errorf("promote seller: %w", err)
	}

	reviewerIDs := make([]string, 0, reviewerCount)
	for i := range reviewerCount {
		u, err := ensureUser(ctx, users, fmt.Sprintf("reviewer%02d", i+1))
		if err != nil {
			return err
		}
		reviewerIDs = append(reviewerIDs, u.ID)
	}

	rng := rand.New(rand.NewSource(seed))
	var listingCount, reviewCount int
	for _, kind := range domain.Kinds() {
		names := listingNames[kind]
		for i := range listingsPerKind {
			name := names[i%len(names)]
			if i >= len(names) {
				name = fmt.Sprintf("%s #%d", name, i/len(names)+1)
			}
			l, err := listings.Create(ctx, seller.ID, kind, &service.CreateListingInput{
				Name:        name,
				Description: fmt.Sprintf("%s in Bangkok.", name),
				Address:     "Bangkok, Thailand",
				Phone:       fmt.Sprintf("02-%03d-%04d", rng.Intn(1000), rng.Intn(10000)),
			})
			if err != nil {
				return fmt.Errorf("create %s listing %q: %w", kind, name, err)
			}
			listingCount++

			n := rng.Intn(reviewsPerListing + 1)
			for j := range n {
				_, err := reviews.SubmitReview(ctx, &service.SubmitReviewInput{
					ReviewerID: reviewerIDs[(i+j)%len(reviewerIDs)],
					Product:    l.Ref(),
					Comment:    comments[rng.Intn(len(comments))],
					Rating:     float64(1 + rng.Intn(5)),
				})
				if err != nil {
					return fmt.Errorf("review %s: %w", l.Ref(), err)
				}
				reviewCount++
			}
		}
	}

	log.Info("seed complete",
		slog.Int("users", reviewerCount+1),
		slog.Int("listings", listingCount),
		slog.Int("reviews", reviewCount),
	)
	return nil
}

// ensureUser registers username, or logs in when the account already exists
// from an earlier run.
func ensureUser(ctx context.Context, users *service.UserService, username string) (*domain.User, error) {
	email := username + "@rainbow.local"
	res, err := users.Register(ctx, service.RegisterInput{
		Username: username,
		Email:    email,
		Password: seedPassword,
	})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		res, err = users.Login(ctx, service.LoginInput{Email: email, Password: seedPassword})
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", username, err)
	}
	return res.User, nil
}
