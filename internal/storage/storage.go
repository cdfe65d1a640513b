package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
)

// ErrNotFound signals a missing record from mutation paths that do not
// report existence separately. Both backends return this same sentinel.
var ErrNotFound = errors.New("not found")

// Storage is the top-level store handed to the server. The per-domain
// stores are reached through backend-specific accessors.
type Storage interface {
	FoodsStorage
	Close() error
}

// ============================================================================
// Foods
// ============================================================================

// FoodsStorage manages the food catalog (standard foods and compiled recipes).
type FoodsStorage interface {
	// ListFoods returns foods visible to the owner (own foods plus system foods),
	// optionally filtered by a case-insensitive name query.
	ListFoods(ctx context.Context, ownerID string, query string, limit, offset int) ([]Food, error)

	// GetFood returns a food by ID. Returns false if not found.
	GetFood(ctx context.Context, id uuid.UUID) (Food, bool, error)

	// CreateFood creates a new food.
	CreateFood(ctx context.Context, food *Food) error

	// UpdateFood updates a food.
	UpdateFood(ctx context.Context, food *Food) error

	// DeleteFood removes a food. Meal items and recipe items keep their snapshots.
	DeleteFood(ctx context.Context, id uuid.UUID) error

	// Close закрывает соединение (для Postgres)
	Close() error
}

// Food is a catalog entry. Recipes are foods too: their Profile holds the
// compiled per-portion values and Items holds the ingredient list used to
// recompile them.
type Food struct {
	ID      uuid.UUID
	OwnerID string // empty = system food, visible to everyone
	Profile nutrition.Profile
	Items   []RecipeItem // recipes only
	Weight  float64      // recipes only: total non-recipe ingredient grams

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeItem is one ingredient of a recipe food.
type RecipeItem struct {
	FoodID   uuid.UUID          `json:"foodId"`
	Amount   float64            `json:"amount"`
	Snapshot *nutrition.Profile `json:"snapshot,omitempty"`
}

// ConversionsStorage manages per-food custom measurement units.
type ConversionsStorage interface {
	// ListConversions returns conversions for a food visible to the owner.
	ListConversions(ctx context.Context, ownerID string, foodID uuid.UUID) ([]Conversion, error)

	// CreateConversion creates a new conversion.
	CreateConversion(ctx context.Context, conv *Conversion) error

	// DeleteConversion removes a conversion (ownership check).
	DeleteConversion(ctx context.Context, ownerID string, id uuid.UUID) error
}

// Conversion maps a named household measure to grams for one food.
type Conversion struct {
	ID          uuid.UUID
	OwnerID     string
	FoodID      uuid.UUID
	Name        string  // label shown in unit pickers, e.g. "bolsa"
	Grams       float64 // grams per one unit
	OriginalQty float64 // how many units were weighed
	TotalWeight float64 // total grams weighed
	CreatedAt   time.Time
}

// ============================================================================
// Meals
// ============================================================================

// MealsStorage manages logged meals and their items.
type MealsStorage interface {
	// ListMeals returns the owner's meals for a date (YYYY-MM-DD),
	// ordered by creation time.
	ListMeals(ctx context.Context, ownerID string, date string) ([]Meal, error)

	// GetMeal returns a meal by ID. Returns false if not found.
	GetMeal(ctx context.Context, id uuid.UUID) (Meal, bool, error)

	// CreateMeal creates a new meal.
	CreateMeal(ctx context.Context, meal *Meal) error

	// UpdateMeal updates a meal (name and items).
	UpdateMeal(ctx context.Context, meal *Meal) error

	// DeleteMeal removes a meal.
	DeleteMeal(ctx context.Context, id uuid.UUID) error
}

// Meal is a logged eating occasion with its items.
type Meal struct {
	ID        uuid.UUID
	OwnerID   string
	Name      string
	Date      string // YYYY-MM-DD
	Items     []MealItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealItem is one food entry of a meal. Snapshot preserves the food's
// nutrition at logging time so deleting the food does not change history.
type MealItem struct {
	ID       uuid.UUID          `json:"id"`
	FoodID   uuid.UUID          `json:"foodId"`
	Amount   float64            `json:"amount"`
	Unit     string             `json:"unit"`
	Snapshot *nutrition.Profile `json:"snapshot,omitempty"`
}

// ============================================================================
// Routines
// ============================================================================

// RoutinesStorage manages workout routines and their exercises.
type RoutinesStorage interface {
	// ListRoutines returns the owner's routines ordered by creation time.
	ListRoutines(ctx context.Context, ownerID string) ([]Routine, error)

	// GetRoutine returns a routine by ID. Returns false if not found.
	GetRoutine(ctx context.Context, id uuid.UUID) (Routine, bool, error)

	// CreateRoutine creates a new routine.
	CreateRoutine(ctx context.Context, routine *Routine) error

	// UpdateRoutine updates a routine (name, exercises, progression state).
	UpdateRoutine(ctx context.Context, routine *Routine) error

	// DeleteRoutine removes a routine.
	DeleteRoutine(ctx context.Context, id uuid.UUID) error
}

// Routine is an ordered workout template.
type Routine struct {
	ID           uuid.UUID
	OwnerID      string
	Name         string
	Exercises    []Exercise
	LastFinished *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Exercise is one slot of a routine. GroupID links copies of the same
// movement across routines so progression carries over.
type Exercise struct {
	ID      uuid.UUID `json:"id"`
	GroupID uuid.UUID `json:"groupId"`
	Name    string    `json:"name"`

	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weightKg"`

	TrackingMode string `json:"trackingMode"` // "reps" or "time"
	TimeSeconds  int    `json:"timeSeconds,omitempty"`
	Unilateral   bool   `json:"unilateral,omitempty"`

	LoadMode       string  `json:"loadMode"` // "external", "bodyweight", "assisted"
	LoadMultiplier float64 `json:"loadMultiplier,omitempty"`

	RestBetweenSetsSec      int `json:"restBetweenSetsSec"`
	RestBetweenExercisesSec int `json:"restBetweenExercisesSec"`

	// DoneSeries holds the indices of the sets completed in the current
	// cycle. Per-instance progress, never synchronized across the group.
	DoneSeries []int `json:"doneSeries,omitempty"`
}

// ============================================================================
// Workouts
// ============================================================================

// WorkoutLogsStorage manages finished workout records.
type WorkoutLogsStorage interface {
	// ListWorkoutLogs returns the owner's logs, newest first, with pagination.
	ListWorkoutLogs(ctx context.Context, ownerID string, limit, offset int) ([]WorkoutLog, error)

	// GetWorkoutLog returns a log by ID. Returns false if not found.
	GetWorkoutLog(ctx context.Context, id uuid.UUID) (WorkoutLog, bool, error)

	// CreateWorkoutLog creates a new log.
	CreateWorkoutLog(ctx context.Context, log *WorkoutLog) error

	// UpdateWorkoutLog replaces a log's contents.
	UpdateWorkoutLog(ctx context.Context, log *WorkoutLog) error

	// DeleteWorkoutLog removes a log.
	DeleteWorkoutLog(ctx context.Context, id uuid.UUID) error
}

// WorkoutLog is a finished (or manually entered) workout.
type WorkoutLog struct {
	ID          uuid.UUID
	OwnerID     string
	RoutineID   *uuid.UUID // nil for manual logs
	RoutineName string
	StartedAt   time.Time
	FinishedAt  time.Time
	Exercises   []LoggedExercise
	CreatedAt   time.Time
}

// LoggedExercise is one exercise of a finished workout.
type LoggedExercise struct {
	GroupID        uuid.UUID   `json:"groupId,omitempty"`
	Name           string      `json:"name"`
	LoadMode       string      `json:"loadMode,omitempty"`
	LoadMultiplier float64     `json:"loadMultiplier,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Sets           []LoggedSet `json:"sets"`
}

// LoggedSet is one recorded set.
type LoggedSet struct {
	SetIndex int     `json:"setIndex"`
	WeightKg float64 `json:"weightKg"`
	Reps     int     `json:"reps"`
}

// ActiveWorkoutsStorage manages the single in-progress session per owner.
type ActiveWorkoutsStorage interface {
	// GetActiveWorkout returns the owner's in-progress session.
	// Returns false if none exists.
	GetActiveWorkout(ctx context.Context, ownerID string) (ActiveWorkout, bool, error)

	// PutActiveWorkout creates or replaces the owner's session.
	PutActiveWorkout(ctx context.Context, session *ActiveWorkout) error

	// DeleteActiveWorkout removes the owner's session.
	DeleteActiveWorkout(ctx context.Context, ownerID string) error
}

// ActiveWorkout is a live session. One per owner.
type ActiveWorkout struct {
	OwnerID     string
	RoutineID   uuid.UUID
	RoutineName string
	StartedAt   time.Time

	Exercises []SessionExercise `json:"exercises"`

	// Cursor into Exercises/sets for the client UI.
	CurrentExercise int `json:"currentExercise"`
	CurrentSet      int `json:"currentSet"`

	UpdatedAt time.Time
}

// SessionExercise is one exercise within an active session.
type SessionExercise struct {
	ExerciseID uuid.UUID `json:"exerciseId"`
	GroupID    uuid.UUID `json:"groupId"`
	Name       string    `json:"name"`

	PlannedSets     int     `json:"plannedSets"`
	PlannedReps     int     `json:"plannedReps"`
	PlannedWeightKg float64 `json:"plannedWeightKg"`

	TrackingMode            string  `json:"trackingMode"`
	TimeSeconds             int     `json:"timeSeconds,omitempty"`
	Unilateral              bool    `json:"unilateral,omitempty"`
	LoadMode                string  `json:"loadMode"`
	LoadMultiplier          float64 `json:"loadMultiplier,omitempty"`
	RestBetweenSetsSec      int     `json:"restBetweenSetsSec"`
	RestBetweenExercisesSec int     `json:"restBetweenExercisesSec"`

	Notes string      `json:"notes,omitempty"`
	Sets  []LoggedSet `json:"sets"`
}

// ============================================================================
// Goals and body weight
// ============================================================================

// GoalsStorage manages the owner's nutrition targets.
type GoalsStorage interface {
	// GetGoals returns the owner's targets. Returns false if never set.
	GetGoals(ctx context.Context, ownerID string) (Goals, bool, error)

	// UpsertGoals creates or updates the owner's targets.
	UpsertGoals(ctx context.Context, goals *Goals) error
}

// Goals holds daily macro targets plus the wizard inputs that produced them,
// so the wizard can be reopened pre-filled.
type Goals struct {
	OwnerID string

	CaloriesKcal float64
	ProteinG     float64
	CarbsG       float64
	FatG         float64
	FiberG       float64

	// Mode records how the targets were produced: "manual" for hand-entered
	// numbers, "auto" for wizard results.
	Mode string

	// Wizard inputs (absent for manually entered targets).
	Inputs *GoalInputs

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GoalInputs are the calculation wizard's answers.
type GoalInputs struct {
	Sex          string  `json:"sex"` // "male" or "female"
	Age          int     `json:"age"`
	HeightCm     float64 `json:"heightCm"`
	WeightKg     float64 `json:"weightKg"`
	Activity     string  `json:"activity"`     // sedentary .. very_active
	Goal         string  `json:"goal"`         // lose, maintain, gain
	Pace         string  `json:"pace,omitempty"` // slow, normal, fast
	TrainingType string  `json:"trainingType"` // none, light_cardio, intense_cardio, strength, mixed
}

// WeightsStorage manages body weight history.
type WeightsStorage interface {
	// ListWeights returns the owner's entries in a date range, newest first.
	ListWeights(ctx context.Context, ownerID string, from, to string) ([]WeightEntry, error)

	// UpsertWeight creates or replaces the entry for a date.
	UpsertWeight(ctx context.Context, entry *WeightEntry) error

	// DeleteWeight removes the entry for a date.
	DeleteWeight(ctx context.Context, ownerID string, date string) error
}

// WeightEntry is one body weight measurement, one per day.
type WeightEntry struct {
	ID        uuid.UUID
	OwnerID   string
	Date      string // YYYY-MM-DD
	WeightKg  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ============================================================================
// Reports
// ============================================================================

// ReportsStorage manages generated report metadata.
type ReportsStorage interface {
	// CreateReport создаёт новый отчёт (metadata + optional data for memory mode)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает список отчётов пользователя с пагинацией
	ListReports(ctx context.Context, ownerID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// ReportMeta — метаданные отчёта
type ReportMeta struct {
	ID        uuid.UUID
	OwnerID   string
	Format    string  // "pdf" or "csv"
	FromDate  string  // YYYY-MM-DD
	ToDate    string  // YYYY-MM-DD
	ObjectKey *string // S3 object key (NULL for memory mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      []byte // Only used in memory mode (not stored in DB)
}
