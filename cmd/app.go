package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/config"
	"github.com/keithrincon/picklebookie-sub000/internal/database"
	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/push"
	"github.com/keithrincon/picklebookie-sub000/internal/repository"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	notifierGroup   = "notifier"
	followStreamCap = 100000
	dedupeTTL       = 7 * 24 * time.Hour
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg *config.Config
	db  *pgxpool.Pool
	rdb *redis.Client

	users     *services.UserService
	social    *services.SocialService
	posts     *services.PostService
	feed      *services.FeedService
	hub       *services.FeedHub
	photos    *services.PhotoService
	locations *services.LocationService
	feedback  *services.FeedbackService
	prefs     *services.PreferencesService
	counters  *services.CounterService
	notifier  *services.Notifier
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Database connection established")

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, db: db}

	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	var geocoder geo.Geocoder
	if cfg.Geocoder.APIKey != "" {
		google := geo.NewGoogleGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.DefaultRegion, cfg.Geocoder.Timeout)
		geocoder = geo.NewCachedGeocoder(google, a.rdb, cfg.Geocoder.CacheTTL)
	} else {
		log.Warn().Msg("Geocoder API key not set, addresses are stored as entered")
	}

	var publisher services.FollowEventPublisher
	if a.rdb != nil {
		publisher = events.NewPublisher(a.rdb, events.FollowStream, followStreamCap)
	}

	var (
		presigner services.Presigner
		objects   services.ObjectChecker
	)
	if cfg.AWS.S3Bucket != "" {
		client, err := services.NewS3Client(ctx, cfg.AWS.Region, cfg.AWS.AccessKey, cfg.AWS.SecretKey, cfg.AWS.Endpoint)
		if err != nil {
			a.close()
			return nil, err
		}
		presigner = s3.NewPresignClient(client)
		objects = client
	}

	sender, err := push.New(push.APNsConfig{
		KeyPath:    cfg.APNs.KeyPath,
		KeyID:      cfg.APNs.KeyID,
		TeamID:     cfg.APNs.TeamID,
		Topic:      cfg.APNs.Topic,
		Production: cfg.APNs.Production,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create push sender: %w", err)
	}

	loc, err := cfg.Jobs.Location()
	if err != nil {
		a.close()
		return nil, err
	}

	// Initialize services
	a.users = services.NewUserService(userRepo, cfg.JWT.Secret)
	a.social = services.NewSocialService(userRepo, followRepo, publisher)
	a.feed = services.NewFeedService(postRepo, cfg.Feed.RadiusMiles)
	a.hub = services.NewFeedHub(a.feed)
	a.posts = services.NewPostService(postRepo, userRepo, geocoder, a.hub, loc)
	a.photos = services.NewPhotoService(userRepo, presigner, objects, cfg.AWS.S3Bucket, cfg.AWS.Region, cfg.AWS.Endpoint)
	a.locations = services.NewLocationService(locationRepo, geocoder)
	a.feedback = services.NewFeedbackService(feedbackRepo)
	a.prefs = services.NewPreferencesService(prefsRepo)
	a.counters = services.NewCounterService(userRepo, followRepo)
	if a.rdb != nil {
		a.notifier = services.NewNotifier(userRepo, prefsRepo, sender, services.NewRedisDeduper(a.rdb, dedupeTTL))
	}

	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	a.db.Close()
}
