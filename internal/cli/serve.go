package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"eduquest-service/internal/app"
	"eduquest-service/internal/config"
	"eduquest-service/internal/domain"
	"eduquest-service/internal/infra/memory"
	"eduquest-service/internal/infra/openai"
	pginfra "eduquest-service/internal/infra/postgres"
	redisinfra "eduquest-service/internal/infra/redis"
	transport "eduquest-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	topicTTL := config.TTLDuration(cfg.Quiz.TopicTTL, 10*time.Minute)
	progressTTL := config.TTLDuration(cfg.Quiz.ProgressTTL, 0)

	var loader memory.TopicLoader = memory.NewStaticTopicLoader(sampleTopics())
	if pool != nil {
		loader = pginfra.NewTopicLoader(pool)
	}

	var topics app.TopicRepository
	if redisClient != nil {
		topics = redisinfra.NewTopicRepository(redisClient, loader, topicTTL)
	} else {
		topics = memory.NewTopicRepository(loader, topicTTL)
	}

	deps := app.Deps{
		Topics:       topics,
		Progress:     memory.NewProgressStore(),
		WrongAnswers: memory.NewWrongAnswerStore(),
		Attempts:     memory.NewAttemptStore(),
		Results:      memory.NewResultStore(),
		Certificates: memory.NewCertificateStore(),
		Leaderboard:  memory.NewLeaderboard(),
		Entitlements: memory.NewEntitlements(cfg.Entitlements.PremiumUsers),
	}
	if pool != nil {
		deps.Progress = pginfra.NewProgressRepo(pool)
		deps.WrongAnswers = pginfra.NewWrongAnswerRepo(pool)
		deps.Attempts = pginfra.NewAttemptRepo(pool)
		deps.Results = pginfra.NewResultRepo(pool)
		deps.Certificates = pginfra.NewCertificateRepo(pool)
	}
	if redisClient != nil {
		deps.Leaderboard = redisinfra.NewLeaderboard(redisClient)
		if pool == nil {
			deps.Progress = redisinfra.NewProgressStore(redisClient, progressTTL)
		}
	}

	apiKey := cfg.OpenAI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		explainer, err := openai.New(apiKey, cfg.OpenAI.APIURL, cfg.OpenAI.Model)
		if err != nil {
			return err
		}
		deps.Explainer = explainer
	} else {
		log.Printf("openai key not configured, using local fallback explanations")
	}

	effects := app.NewEffectQueue(0)
	defer effects.Close()
	deps.Effects = effects

	service := app.NewQuizService(deps, app.Config{
		CooldownAfter: cfg.Quiz.CooldownAfter,
		Cooldown:      config.TTLDuration(cfg.Quiz.Cooldown, app.DefaultCooldown),
	})
	revision := app.NewRevisionService(deps.WrongAnswers, nil)

	wsHandler := transport.NewWSHandler(service, revision)
	apiHandler := transport.NewAPIHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting eduquest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleTopics seeds the no-database serve mode; production loads topics
// from Postgres.
func sampleTopics() map[string]domain.Topic {
	return map[string]domain.Topic{
		"go-basics": {
			ID:   "go-basics",
			Name: "Go Basics",
			Questions: []domain.Question{
				{
					ID:                 1,
					Prompt:             "Which keyword declares a variable with inferred type?",
					Options:            []string{"var", ":=", "let", "auto"},
					CorrectOptionIndex: 1,
					Explanation:        "The := short declaration infers the type from the right-hand side.",
					Difficulty:         domain.DifficultyBeginner,
				},
				{
					ID:                 2,
					Prompt:             "What does a nil map lookup return?",
					Options:            []string{"panic", "the zero value", "an error"},
					CorrectOptionIndex: 1,
					Explanation:        "Reading from a nil map yields the element type's zero value; only writes panic.",
					Difficulty:         domain.DifficultyIntermediate,
				},
				{
					ID:                 3,
					Prompt:             "Which statement starts a goroutine?",
					Options:            []string{"go f()", "async f()", "spawn f()", "thread f()"},
					CorrectOptionIndex: 0,
					Explanation:        "The go statement runs the call concurrently in a new goroutine.",
					Difficulty:         domain.DifficultyBeginner,
				},
			},
		},
	}
}
