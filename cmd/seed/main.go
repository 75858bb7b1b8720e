package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/parkyoonha/searchedia-sub001/internal/auth"
	"github.com/parkyoonha/searchedia-sub001/internal/config"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/postgres"
	postgresWorkspace "github.com/parkyoonha/searchedia-sub001/internal/repository/postgres/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/sqlite"
	"github.com/parkyoonha/searchedia-sub001/internal/seed"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop", false, "Drop the remote workspace tables first (fresh start)")
	schema := flag.Bool("schema", false, "Create the remote workspace tables if missing")
	fixturePath := flag.String("fixture", seed.DefaultFixture, "YAML fixture file, or the name of an embedded fixture")
	userID := flag.String("user", "", "Upload the fixture to this user's remote rows instead of the local cache")
	email := flag.String("email", "", "Resolve the target user by email via the Supabase admin API")
	password := flag.String("password", "", "With -email, create the user with this password if missing")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run -drop in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	ctx := context.Background()

	if *email != "" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			log.Fatalf("-email requires SUPABASE_URL and SUPABASE_KEY")
		}
		id, err := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey).EnsureUser(ctx, *email, *password)
		if err != nil {
			log.Fatalf("Failed to resolve user %s: %v", *email, err)
		}
		log.Printf("Resolved %s to user %s", *email, id)
		*userID = id
	}

	needsRemote := *dropTables || *schema || *userID != ""

	// Build the fixture workspace before touching any store
	fixture, err := seed.LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}
	snap, err := fixture.Build(workspace.NewState())
	if err != nil {
		log.Fatalf("Failed to build fixture: %v", err)
	}
	seeder := seed.NewSeeder(logger)

	if !needsRemote {
		if cfg.CachePath == "" {
			log.Fatalf("CACHE_PATH is empty; nothing to seed")
		}
		log.Printf("Seeding local cache %s", cfg.CachePath)
		cache, err := sqlite.Open(cfg.CachePath, logger)
		if err != nil {
			log.Fatalf("Failed to open local cache: %v", err)
		}
		defer cache.Close()

		if err := seeder.SeedLocal(cache, snap); err != nil {
			log.Fatalf("Failed to seed local cache: %v", err)
		}
		log.Println("Seeding complete")
		return
	}

	if cfg.SupabaseDBURL == "" {
		log.Fatalf("SUPABASE_DB_URL is required for -drop, -schema and -user")
	}

	log.Printf("Seeding remote store (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping workspace tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if *dropTables || *schema {
		log.Println("Ensuring workspace schema...")
		if err := postgres.EnsureSchema(ctx, pool, tables, postgres.NewTransactionManager(pool, logger)); err != nil {
			log.Fatalf("Failed to run schema: %v", err)
		}
		log.Println("Schema ready")
	}

	if *userID == "" {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	if err := seeder.SeedRemote(ctx,
		postgresWorkspace.NewFolderRemote(repoConfig),
		postgresWorkspace.NewProjectRemote(repoConfig),
		*userID,
		snap,
	); err != nil {
		log.Fatalf("Failed to seed remote store: %v", err)
	}

	log.Println("Seeding complete")
}
