package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/Alckxyz/nutritrack/internal/auth"
	"github.com/Alckxyz/nutritrack/internal/blob"
	"github.com/Alckxyz/nutritrack/internal/body"
	"github.com/Alckxyz/nutritrack/internal/config"
	"github.com/Alckxyz/nutritrack/internal/foods"
	"github.com/Alckxyz/nutritrack/internal/goals"
	"github.com/Alckxyz/nutritrack/internal/meals"
	"github.com/Alckxyz/nutritrack/internal/reports"
	"github.com/Alckxyz/nutritrack/internal/routines"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/storage/memory"
	"github.com/Alckxyz/nutritrack/internal/storage/postgres"
	"github.com/Alckxyz/nutritrack/internal/timer"
	"github.com/Alckxyz/nutritrack/internal/workouts"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
	timerManager   *timer.Manager
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Используется in-memory storage")
		s.storage = memory.New()
	} else {
		log.Println("Подключение к PostgreSQL...")
		ctx := context.Background()
		pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			log.Printf("Ошибка подключения к PostgreSQL: %v", err)
			log.Println("Fallback на in-memory storage")
			s.storage = memory.New()
		} else {
			log.Println("PostgreSQL подключен успешно")
			s.storage = pgStorage
		}
	}
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Foods API (catalog, recipes, custom units)
	foodsService := foods.NewService(s.storage, s.getConversionsStorage())
	foodsHandler := foods.NewHandlers(foodsService)

	s.mux.HandleFunc("GET /v1/foods", foodsHandler.HandleListFoods)
	s.mux.HandleFunc("POST /v1/foods", foodsHandler.HandleCreateFood)
	s.mux.HandleFunc("GET /v1/foods/{id}", foodsHandler.HandleGetFood)
	s.mux.HandleFunc("PATCH /v1/foods/{id}", foodsHandler.HandleUpdateFood)
	s.mux.HandleFunc("DELETE /v1/foods/{id}", foodsHandler.HandleDeleteFood)
	s.mux.HandleFunc("GET /v1/foods/{id}/conversions", foodsHandler.HandleListConversions)
	s.mux.HandleFunc("POST /v1/foods/{id}/conversions", foodsHandler.HandleCreateConversion)
	s.mux.HandleFunc("DELETE /v1/conversions/{id}", foodsHandler.HandleDeleteConversion)

	// Meals API
	mealsService := meals.NewService(s.getMealsStorage(), s.storage)
	mealsHandler := meals.NewHandlers(mealsService)

	s.mux.HandleFunc("GET /v1/meals", mealsHandler.HandleListMeals)
	s.mux.HandleFunc("POST /v1/meals", mealsHandler.HandleCreateMeal)
	s.mux.HandleFunc("PATCH /v1/meals/{id}", mealsHandler.HandleUpdateMeal)
	s.mux.HandleFunc("DELETE /v1/meals/{id}", mealsHandler.HandleDeleteMeal)
	s.mux.HandleFunc("POST /v1/meals/{id}/items", mealsHandler.HandleAddItem)
	s.mux.HandleFunc("PATCH /v1/meals/{id}/items/{index}", mealsHandler.HandleUpdateItem)
	s.mux.HandleFunc("DELETE /v1/meals/{id}/items/{index}", mealsHandler.HandleRemoveItem)
	s.mux.HandleFunc("GET /v1/meals/{id}/summary", mealsHandler.HandleSummary)

	// Routines API
	routinesService := routines.NewService(s.getRoutinesStorage())
	routinesHandler := routines.NewHandlers(routinesService)

	s.mux.HandleFunc("GET /v1/routines", routinesHandler.HandleListRoutines)
	s.mux.HandleFunc("POST /v1/routines", routinesHandler.HandleCreateRoutine)
	s.mux.HandleFunc("PATCH /v1/routines/{id}", routinesHandler.HandleUpdateRoutine)
	s.mux.HandleFunc("DELETE /v1/routines/{id}", routinesHandler.HandleDeleteRoutine)
	s.mux.HandleFunc("POST /v1/routines/{id}/exercises", routinesHandler.HandleAddExercise)
	s.mux.HandleFunc("PATCH /v1/routines/{id}/exercises/{exerciseId}", routinesHandler.HandleUpdateExercise)
	s.mux.HandleFunc("DELETE /v1/routines/{id}/exercises/{exerciseId}", routinesHandler.HandleDeleteExercise)
	s.mux.HandleFunc("POST /v1/routines/{id}/exercises/{exerciseId}/replace", routinesHandler.HandleReplaceExercise)

	// Interval timers. The manager also dispatches rest countdowns started by
	// workout sessions.
	s.timerManager = timer.NewManager(&logCue{})
	timerHandler := timer.NewHandlers(s.timerManager, s.config.TimerMaxSeconds)

	s.mux.HandleFunc("POST /v1/timers/start", timerHandler.HandleStartTimer)
	s.mux.HandleFunc("GET /v1/timers", timerHandler.HandleGetTimer)
	s.mux.HandleFunc("POST /v1/timers/pause", timerHandler.HandlePauseTimer)
	s.mux.HandleFunc("POST /v1/timers/resume", timerHandler.HandleResumeTimer)
	s.mux.HandleFunc("POST /v1/timers/skip", timerHandler.HandleSkipTimer)
	s.mux.HandleFunc("DELETE /v1/timers", timerHandler.HandleCancelTimer)

	// Workout sessions and logs
	workoutsService := workouts.NewService(
		s.getActiveWorkoutsStorage(),
		s.getWorkoutLogsStorage(),
		s.getRoutinesStorage(),
		s.timerManager,
	)
	workoutsHandler := workouts.NewHandlers(workoutsService)

	s.mux.HandleFunc("POST /v1/workouts/session/start", workoutsHandler.HandleStartSession)
	s.mux.HandleFunc("GET /v1/workouts/session", workoutsHandler.HandleGetSession)
	s.mux.HandleFunc("POST /v1/workouts/session/sets", workoutsHandler.HandleLogSet)
	s.mux.HandleFunc("POST /v1/workouts/session/finish", workoutsHandler.HandleFinishSession)
	s.mux.HandleFunc("DELETE /v1/workouts/session", workoutsHandler.HandleCancelSession)
	s.mux.HandleFunc("GET /v1/workouts/logs", workoutsHandler.HandleListLogs)
	s.mux.HandleFunc("POST /v1/workouts/logs", workoutsHandler.HandleCreateLog)
	s.mux.HandleFunc("PATCH /v1/workouts/logs/{id}", workoutsHandler.HandleUpdateLog)
	s.mux.HandleFunc("DELETE /v1/workouts/logs/{id}", workoutsHandler.HandleDeleteLog)

	// Goals API
	goalsService := goals.NewService(s.getGoalsStorage())
	goalsHandler := goals.NewHandlers(goalsService)

	s.mux.HandleFunc("GET /v1/goals", goalsHandler.HandleGetGoals)
	s.mux.HandleFunc("PUT /v1/goals", goalsHandler.HandleUpsertGoals)
	s.mux.HandleFunc("POST /v1/goals/calculate", goalsHandler.HandleCalculate)

	// Body weight history
	bodyService := body.NewService(s.getWeightsStorage())
	bodyHandler := body.NewHandlers(bodyService)

	s.mux.HandleFunc("GET /v1/body/weights", bodyHandler.HandleListWeights)
	s.mux.HandleFunc("POST /v1/body/weights", bodyHandler.HandleUpsertWeight)
	s.mux.HandleFunc("DELETE /v1/body/weights/{date}", bodyHandler.HandleDeleteWeight)

	// Reports API
	reportsBlobStore := s.initBlobStore()
	reportsGenerator := reports.NewGenerator(
		mealsService,
		s.getWorkoutLogsStorage(),
		s.getWeightsStorage(),
	)
	reportsService := reports.NewService(
		s.getReportsStorage(),
		reportsGenerator,
		reportsBlobStore,
		s.config.ReportsMaxRangeDays,
		s.config.Blob.S3.PresignTTLSeconds,
		s.config.Blob.S3.PublicBaseURL,
		s.config.Blob.S3.PreferPublicURL,
	)
	reportsHandler := reports.NewHandlers(reportsService)

	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// getConversionsStorage returns the conversions storage based on storage type
func (s *Server) getConversionsStorage() storage.ConversionsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetConversionsStorage()
	case *postgres.PostgresStorage:
		return st.GetConversionsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getMealsStorage returns the meals storage based on storage type
func (s *Server) getMealsStorage() storage.MealsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetMealsStorage()
	case *postgres.PostgresStorage:
		return st.GetMealsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getRoutinesStorage returns the routines storage based on storage type
func (s *Server) getRoutinesStorage() storage.RoutinesStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetRoutinesStorage()
	case *postgres.PostgresStorage:
		return st.GetRoutinesStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getWorkoutLogsStorage returns the workout logs storage based on storage type
func (s *Server) getWorkoutLogsStorage() storage.WorkoutLogsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetWorkoutLogsStorage()
	case *postgres.PostgresStorage:
		return st.GetWorkoutLogsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getActiveWorkoutsStorage returns the active sessions storage based on storage type
func (s *Server) getActiveWorkoutsStorage() storage.ActiveWorkoutsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetActiveWorkoutsStorage()
	case *postgres.PostgresStorage:
		return st.GetActiveWorkoutsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getGoalsStorage returns the goals storage based on storage type
func (s *Server) getGoalsStorage() storage.GoalsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetGoalsStorage()
	case *postgres.PostgresStorage:
		return st.GetGoalsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getWeightsStorage returns the body weights storage based on storage type
func (s *Server) getWeightsStorage() storage.WeightsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetWeightsStorage()
	case *postgres.PostgresStorage:
		return st.GetWeightsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// getReportsStorage returns the reports storage based on storage type
func (s *Server) getReportsStorage() storage.ReportsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetReportsStorage()
	case *postgres.PostgresStorage:
		return st.GetReportsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

// initBlobStore initializes the blob store for report downloads.
func (s *Server) initBlobStore() blob.Store {
	log.Printf("INFO blob: initializing reports store (BLOB_MODE=%s)", s.config.Blob.Mode)
	store, mode, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize reports store: %v", err)
	}
	log.Printf("INFO blob: reports blob mode: %s", mode)
	return store
}

// logCue reports timer phase transitions to the server log. A push channel
// to the client can replace it without touching the manager.
type logCue struct{}

func (c *logCue) PhaseDone(userID, phase string) {
	log.Printf("timer: user=%s phase=%s done", userID, phase)
}

func (c *logCue) Finished(userID string) {
	log.Printf("timer: user=%s finished", userID)
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	// Timer countdowns tick once per second for every user.
	go s.timerManager.Run(context.Background())

	// Build middleware chain (outermost first): CORS → Rate Limit → Auth → Router
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != "none" {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Foods API: http://localhost%s/v1/foods\n", addr)

	return http.ListenAndServe(addr, handler)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
