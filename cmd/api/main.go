package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aidar/team-formation/internal/app"
	"github.com/aidar/team-formation/internal/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Читаем конфигурацию из окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка чтения конфигурации: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	// Подключение к БД и сборка роутера
	if err := application.Initialize(context.Background()); err != nil {
		log.Fatalf("Ошибка инициализации: %v", err)
	}

	// Сервер работает в фоне, главная горутина ждет сигнал остановки
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := application.Run(); err != nil {
			log.Printf("Сервер завершился с ошибкой: %v", err)
		}
	}()

	fmt.Printf("Сервис команд слушает порт %s\n", cfg.Server.Port)

	<-sigChan
	fmt.Println("\nПолучен сигнал остановки, завершаем работу...")

	// Даем активным запросам время завершиться
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Ошибка при остановке: %v", err)
	}

	fmt.Println("Сервис остановлен")
}
