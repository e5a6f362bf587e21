// Command seed fills the feedback database with sample reviews so the admin
// dashboard has something to show in development. AI fields are filled from
// the offline templates; no provider is called.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/config"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/repository/postgres"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/migrations"
	pkgconfig "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/config"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/database"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

var reviewTexts = map[int][]string{
	1: {
		"Waited over an hour and the food arrived cold.",
		"Rude staff and the table was never cleaned.",
		"Found a hair in my soup. Will not be back.",
	},
	2: {
		"The pasta was overcooked and the sauce bland.",
		"Nice room but the service was painfully slow.",
		"Portions were tiny for the price.",
	},
	3: {
		"Decent burger, fries were soggy.",
		"Average experience overall, nothing memorable.",
		"Good coffee, the pastries were a bit stale.",
	},
	4: {
		"Lovely atmosphere and friendly waiters.",
		"Great curry, slightly too spicy for my taste.",
		"Fresh ingredients and quick service at lunch.",
	},
	5: {
		"Best ramen in town, the broth is incredible!",
		"Outstanding tasting menu and perfect wine pairing.",
		"The staff remembered my birthday. Wonderful evening.",
	},
}

// sampleReviews builds n reviews spread over the last 30 days before now.
func sampleReviews(n int, rng *rand.Rand, now time.Time) ([]*domain.Review, error) {
	reviews := make([]*domain.Review, 0, n)
	for i := 0; i < n; i++ {
		rating := domain.MinRating + rng.Intn(domain.MaxRating-domain.MinRating+1)
		texts := reviewTexts[rating]

		sub, err := domain.NewSubmission(rating, texts[rng.Intn(len(texts))])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		review := domain.NewReview(sub,
			generation.Summary.Fallback(rating, sub.Text),
			generation.RecommendedActions.Fallback(rating, sub.Text),
		)
		review.CreatedAt = now.Add(-time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))).UTC()
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func run(ctx context.Context, count int, seed int64, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	reviews, err := sampleReviews(count, rand.New(rand.NewSource(seed)), time.Now())
	if err != nil {
		return err
	}

	repo := postgres.NewReviewRepository(pool)
	for i, r := range reviews {
		if err := repo.Create(ctx, r); err != nil {
			return fmt.Errorf("insert review %d: %w", i, err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("review stats: %w", err)
	}
	a := stats.Analytics()
	log.Info("seed complete",
		slog.Int("inserted", len(reviews)),
		slog.Int("total_reviews", a.TotalReviews),
		slog.Float64("average_rating", a.AverageRating),
	)
	return nil
}

func main() {
	count := flag.Int("count", 50, "number of reviews to insert")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Warn("ignoring .env file", slog.String("error", err.Error()))
	}
	log := logger.New("feedback-seed", os.Getenv("LOG_LEVEL"))

	if *count < 1 {
		log.Error("count must be positive", slog.Int("count", *count))
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, *count, *seed, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
