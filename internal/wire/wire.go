// Package wire provides dependency injection for the ctx application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/ctx/internal/adapters/agent"
	"github.com/example/ctx/internal/adapters/filesystem"
	"github.com/example/ctx/internal/adapters/sqlite"
	"github.com/example/ctx/internal/app"
	"github.com/example/ctx/internal/config"
	"github.com/example/ctx/internal/db"
	"github.com/example/ctx/internal/ports/primary"
)

var (
	conceptService primary.ConceptService
	taskService    primary.TaskService
	reportService  primary.ReportService
	loadedConfig   *config.Config
	once           sync.Once
)

// ConceptService returns the singleton ConceptService instance.
func ConceptService() primary.ConceptService {
	once.Do(initServices)
	return conceptService
}

// TaskService returns the singleton TaskService instance.
func TaskService() primary.TaskService {
	once.Do(initServices)
	return taskService
}

// ReportService returns the singleton ReportService instance.
func ReportService() primary.ReportService {
	once.Do(initServices)
	return reportService
}

// Configuration returns the loaded configuration.
func Configuration() *config.Config {
	once.Do(initServices)
	return loadedConfig
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to determine working directory: %v", err)
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loadedConfig = cfg

	stateDir := config.StateDir(cwd)

	database, err := db.Open(stateDir)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	ledger, err := filesystem.NewLedger(stateDir)
	if err != nil {
		log.Fatalf("failed to open ledger: %v", err)
	}

	// Create adapters (secondary ports)
	conceptRepo := filesystem.NewConceptRepository(filepath.Join(cwd, cfg.ConceptsDir))
	taskRepo := sqlite.NewTaskRepository(database)
	reportRepo := sqlite.NewReportRepository(database)
	workspace := filesystem.NewWorkspace(filepath.Join(stateDir, "tasks"))

	binary := cfg.AgentBinary
	if binary == "" {
		binary = agent.DefaultBinary
	}
	runner := agent.NewClaudeRunner(binary)

	// Create services (primary ports implementation)
	conceptService = app.NewConceptService(conceptRepo, cfg.BaselineConcept)
	taskService = app.NewTaskService(
		conceptRepo, taskRepo, reportRepo, ledger, workspace, runner,
		cfg.BaselineConcept, cfg.DefaultTemplate)
	reportService = app.NewReportService(reportRepo, taskRepo)
}
