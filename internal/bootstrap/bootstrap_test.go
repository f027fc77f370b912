package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/repositories/memstore"
	"github.com/yigit/courseenroll/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Server.Mode = "test"
	cfg.Seed.Students = 10
	cfg.Seed.Courses = 6
	cfg.Seed.HotCourseCapacity = 2
	return cfg
}

func TestLockTimeoutFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enrollment.LockTimeout = "not-a-duration"
	if got := LockTimeout(cfg); got != memstore.DefaultLockTimeout {
		t.Errorf("LockTimeout = %v, want %v", got, memstore.DefaultLockTimeout)
	}
}

func TestBuildDependenciesRejectsUnknownStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enrollment.DefaultStrategy = "RANDOM"
	if _, err := BuildDependencies(cfg, NewTxManager(cfg, nil), nil, zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an unknown default strategy")
	}
}

func TestRouterServesEnrollmentsOverMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	lgr := zerolog.Nop()

	txManager := NewTxManager(cfg, nil)
	SeedCatalog(context.Background(), cfg, txManager, lgr)

	deps, err := BuildDependencies(cfg, txManager, nil, lgr)
	if err != nil {
		t.Fatalf("BuildDependencies: %v", err)
	}
	router := SetupRouter(cfg, deps, lgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	body, _ := json.Marshal(map[string]int64{"studentId": 1, "courseId": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrollments/pessimistic", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/students/1/timetable", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("timetable status = %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			TotalCredits int `json:"totalCredits"`
			Courses      []struct {
				CourseID int64 `json:"courseId"`
			} `json:"courses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode timetable: %v", err)
	}
	if len(envelope.Data.Courses) != 1 || envelope.Data.Courses[0].CourseID != 1 || envelope.Data.TotalCredits == 0 {
		t.Errorf("timetable = %+v", envelope.Data)
	}
}
