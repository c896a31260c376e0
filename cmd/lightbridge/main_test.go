package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lightbridge/migrations"
)

// writeConfig writes a config file and points LIGHTBRIDGE_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("LIGHTBRIDGE_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LIGHTBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	writeConfig(t, `
database:
  path: ""

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "test-client"

logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_InvalidLights verifies light validation runs before anything connects.
func TestRun_InvalidLights(t *testing.T) {
	writeConfig(t, `
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"

lights:
  - name: porch
    schema: xml
    state_topic: home/porch
  - name: porch
    command_topic: home/porch2/set

logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid lights")
	}
}

// TestRun_SuccessfulStartupAndShutdown tests full startup with running services.
// Requires MQTT broker at 127.0.0.1:1883.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeConfig(t, `
database:
  path: "`+dbPath+`"

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "lightbridge-test-startup"
  reconnect:
    initial_delay: 1
    max_delay: 5

api:
  enabled: true
  host: "127.0.0.1"
  port: 18089

lights:
  - name: porch
    schema: json
    state_topic: test/lightbridge/porch
    brightness: true

logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Logf("run() returned error: %v (may be due to missing MQTT broker)", err)
	}
}

// TestMigrateDown verifies the latest migration is rolled back.
func TestMigrateDown(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeConfig(t, `
database:
  path: "`+dbPath+`"

logging:
  level: error
  format: text
  output: stdout
`)

	db, err := database.Open(ctx, config.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	applied, _, err := db.MigrationStatus(ctx, migrations.FS)
	if err != nil || len(applied) == 0 {
		t.Fatalf("MigrationStatus() = %d applied, %v", len(applied), err)
	}
	want := len(applied) - 1
	db.Close() //nolint:errcheck // reopened below

	if err := migrateDown(ctx); err != nil {
		t.Fatalf("migrateDown() error = %v", err)
	}

	db, err = database.Open(ctx, config.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	applied, _, err = db.MigrationStatus(ctx, migrations.FS)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != want {
		t.Errorf("applied migrations = %d, want %d", len(applied), want)
	}
}

// TestMigrateDown_InvalidConfig verifies a bad config path is reported.
func TestMigrateDown_InvalidConfig(t *testing.T) {
	t.Setenv("LIGHTBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	if err := migrateDown(context.Background()); err == nil {
		t.Fatal("migrateDown() should fail with invalid config path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("LIGHTBRIDGE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("LIGHTBRIDGE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

// TestHealthCheck verifies the first failing dependency is reported.
func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	down := errors.New("down")

	if err := healthCheck(ctx, fakeHealth{}, fakeHealth{}, nil); err != nil {
		t.Errorf("healthCheck() = %v, want nil with nil InfluxDB", err)
	}

	err := healthCheck(ctx, fakeHealth{err: down}, fakeHealth{}, nil)
	if !errors.Is(err, down) || err.Error() != "database: down" {
		t.Errorf("healthCheck() = %v, want database: down", err)
	}

	err = healthCheck(ctx, fakeHealth{}, fakeHealth{err: down}, nil)
	if !errors.Is(err, down) || err.Error() != "mqtt: down" {
		t.Errorf("healthCheck() = %v, want mqtt: down", err)
	}
}

type fakePruner struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (p *fakePruner) PruneHistory(_ context.Context, olderThan time.Duration) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, olderThan)
	return 3, p.err
}

func (p *fakePruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// TestPruneLoop verifies retention is applied at start and the loop exits on cancel.
func TestPruneLoop(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	pruner := &fakePruner{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pruneLoop(ctx, pruner, config.HistoryConfig{RetentionDays: 7, PruneInterval: 60}, log)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruneLoop did not exit after cancel")
	}

	if pruner.count() != 1 {
		t.Fatalf("PruneHistory called %d times, want 1", pruner.count())
	}
	if pruner.calls[0] != 7*24*time.Hour {
		t.Errorf("retention = %v, want 168h", pruner.calls[0])
	}
}

// TestPruneLoop_Disabled verifies zero retention keeps everything.
func TestPruneLoop_Disabled(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	pruner := &fakePruner{}

	pruneLoop(context.Background(), pruner, config.HistoryConfig{RetentionDays: 0}, log)
	if pruner.count() != 0 {
		t.Errorf("PruneHistory called %d times, want 0", pruner.count())
	}

	pruner.err = errors.New("locked")
	pruneOnce(context.Background(), pruner, config.HistoryConfig{RetentionDays: 1}, log)
	if pruner.count() != 1 {
		t.Errorf("PruneHistory called %d times, want 1", pruner.count())
	}
}
