package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

type fakePoolStat struct{}

func (fakePoolStat) AcquiredConns() int32           { return 3 }
func (fakePoolStat) IdleConns() int32               { return 7 }
func (fakePoolStat) TotalConns() int32              { return 10 }
func (fakePoolStat) EmptyAcquireCount() int64       { return 42 }
func (fakePoolStat) AcquireDuration() time.Duration { return 1500 * time.Millisecond }

func TestUpdateDBPoolMetrics(t *testing.T) {
	UpdateDBPoolMetrics(fakePoolStat{})

	if got := gaugeValue(t, DBPoolConnsOpen); got != 10 {
		t.Errorf("expected 10 open conns, got %v", got)
	}
	if got := gaugeValue(t, DBPoolConnsIdle); got != 7 {
		t.Errorf("expected 7 idle conns, got %v", got)
	}
	if got := gaugeValue(t, DBPoolEmptyAcquires); got != 42 {
		t.Errorf("expected 42 empty acquires, got %v", got)
	}
	if got := gaugeValue(t, DBPoolAcquireSeconds); got != 1.5 {
		t.Errorf("expected 1.5s acquire duration, got %v", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", Handler())

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tripfootprint_http_requests_total") {
		t.Error("expected http request counter in /metrics output")
	}
}

func TestCacheOperation(t *testing.T) {
	tests := map[string]string{
		"footprint:estimate:abc123": "footprint:estimate",
		"plain":                     "other",
		":leading":                  "other",
	}
	for key, want := range tests {
		if got := CacheOperation(key); got != want {
			t.Errorf("CacheOperation(%q) = %q, want %q", key, got, want)
		}
	}
}
