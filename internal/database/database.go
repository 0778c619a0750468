package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"rescueplate/internal/config"
	"rescueplate/internal/models"
	"rescueplate/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// Stores bundles the repositories of one storage backend.
type Stores struct {
	Users    repositories.UserRepository
	Listings repositories.ListingRepository
	closeFn  func() error
}

// Close releases the underlying connection, if any.
func (s *Stores) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open connects to the backend selected by cfg.DatabaseURL.
func Open(cfg *config.Config) (*Stores, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Println("Connected to postgres database")
		return NewGORMStores(db, cfg.AutoMigrate)
	case config.DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath()), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		log.Println("Connected to sqlite database")
		return NewGORMStores(db, cfg.AutoMigrate)
	case config.DriverMongo:
		return openMongo(cfg)
	default:
		log.Println("Using in-memory storage; data is lost on restart")
		return NewInMemoryStores(), nil
	}
}

// NewGORMStores wires GORM repositories over db, migrating the schema when asked.
func NewGORMStores(db *gorm.DB, migrate bool) (*Stores, error) {
	if migrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	users := repositories.NewGORMUserRepository(db)
	return &Stores{
		Users:    users,
		Listings: repositories.NewGORMListingRepository(db, users),
		closeFn: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

// Migrate creates or updates the users and listings tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Listing{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewInMemoryStores wires the in-memory repositories.
func NewInMemoryStores() *Stores {
	users := repositories.NewInMemoryUserRepository()
	return &Stores{
		Users:    users,
		Listings: repositories.NewInMemoryListingRepository(users),
	}
}

func openMongo(cfg *config.Config) (*Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}
	log.Printf("Connected to mongodb database %s", cfg.MongoDatabase)

	db := client.Database(cfg.MongoDatabase)
	users := repositories.NewMongoUserRepository(db)
	listings := repositories.NewMongoListingRepository(db, users)
	if cfg.AutoMigrate {
		if err := users.EnsureIndexes(); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		if err := listings.EnsureIndexes(); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	return &Stores{
		Users:    users,
		Listings: listings,
		closeFn: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}, nil
}
