package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-formation/internal/config"
	"github.com/aidar/team-formation/internal/handler"
	"github.com/aidar/team-formation/internal/middleware"
	"github.com/aidar/team-formation/internal/notifier"
	"github.com/aidar/team-formation/internal/repository/postgres"
	"github.com/aidar/team-formation/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config *config.Config
	db     *pgxpool.Pool
	server *http.Server
	logger *slog.Logger
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	if err := a.setupServer(); err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// buildNotifier создает notifier в зависимости от конфигурации SMTP
func (a *App) buildNotifier() (notifier.Notifier, error) {
	if !a.config.SMTP.Enabled {
		a.logger.Info("SMTP disabled, notifications will be dropped")
		return notifier.Noop{}, nil
	}

	smtp := a.config.SMTP
	n, err := notifier.NewSMTPNotifier(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp notifier: %w", err)
	}

	a.logger.Info("SMTP notifier configured", "host", smtp.Host)
	return n, nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer() error {
	// Инициализируем слой репозиториев (работа с БД)
	userRepo := postgres.NewUserRepository(a.db)
	teamRepo := postgres.NewTeamRepository(a.db)

	// Почтовые уведомления (best-effort)
	mailNotifier, err := a.buildNotifier()
	if err != nil {
		return err
	}

	// Инициализируем слой сервисов (бизнес-логика)
	authService := service.NewAuthService(
		userRepo,
		mailNotifier,
		a.logger,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
	)
	teamService := service.NewTeamService(teamRepo, userRepo, mailNotifier, a.logger)
	userService := service.NewUserService(userRepo)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	teamHandler := handler.NewTeamHandler(teamService)
	userHandler := handler.NewUserHandler(userService)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Публичные эндпоинты (без авторизации)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Список открытых команд доступен и анонимно, но с токеном
	// собственные команды и заявки пользователя исключаются из выдачи
	r.Group(func(r chi.Router) {
		r.Use(optionalAuthMiddleware)
		r.Get("/teams/available", teamHandler.ListAvailable)
	})

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		// Эндпоинты команд
		r.Post("/teams", teamHandler.CreateTeam)
		r.Get("/teams/created", teamHandler.ListCreated)
		r.Get("/teams/applied", teamHandler.ListApplied)
		r.Get("/teams/{teamID}", teamHandler.GetTeam)

		// Жизненный цикл заявок
		r.Post("/teams/{teamID}/apply", teamHandler.Apply)
		r.Post("/teams/{teamID}/applicants/{applicantID}/accept", teamHandler.Accept)
		r.Post("/teams/{teamID}/applicants/{applicantID}/reject", teamHandler.Reject)
		r.Post("/teams/{teamID}/applicants/{applicantID}/withdraw", teamHandler.Withdraw)

		// Эндпоинты пользователей
		r.Get("/users/me", userHandler.Me)
	})

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
	return nil
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
