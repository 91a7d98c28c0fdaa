// Package httpapi HTTP API состояния сервиса: статус, внеочередная синхронизация,
// перезагрузка параметров и метрики Prometheus.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/service"
)

// Facade то, что API использует от сервиса.
type Facade interface {
	Status() service.Status
	SyncNow() (engine.Outcome, error)
	Reload() config.Settings
}

// SettingValue параметр и его происхождение.
type SettingValue struct {
	Value   interface{} `json:"value"`
	Default bool        `json:"default"`
	Source  string      `json:"source,omitempty"`
}

// OutcomeView итог попытки в JSON.
type OutcomeView struct {
	Trigger  string  `json:"trigger,omitempty"`
	Result   string  `json:"result"`
	Stage    string  `json:"stage"`
	Failure  string  `json:"failure"`
	Error    string  `json:"error,omitempty"`
	Server   string  `json:"server"`
	Port     int     `json:"port"`
	Started  string  `json:"started"`
	Received string  `json:"received,omitempty"`
	Applied  string  `json:"applied,omitempty"`
	OffsetMs float64 `json:"offset_ms"`
	QueryMs  float64 `json:"query_ms"`
}

// StatusView ответ /api/status.
type StatusView struct {
	Name     string                  `json:"name"`
	State    string                  `json:"state"`
	Interval string                  `json:"interval"`
	Settings map[string]SettingValue `json:"settings"`
	Last     *OutcomeView            `json:"last,omitempty"`
}

// NewRouter регистрирует маршруты. metrics может быть nil.
func NewRouter(facade Facade, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/status", statusHandler(facade))
	api.POST("/sync", syncHandler(facade))
	api.POST("/reload", reloadHandler(facade))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ntpsync\n")
	})
	return r
}

func statusHandler(facade Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := facade.Status()
		view := StatusView{
			Name:     st.Name,
			State:    st.State.String(),
			Interval: st.Interval.String(),
			Settings: settingsView(st.Settings),
		}
		if st.Last != nil {
			o := outcomeView(string(st.Last.Trigger), st.Last.Outcome)
			view.Last = &o
		}
		c.JSON(http.StatusOK, gin.H{"type": "status", "data": view})
	}
}

func syncHandler(facade Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := facade.SyncNow()
		if errors.Is(err, service.ErrNotRunning) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		code := http.StatusOK
		if !out.Succeeded() {
			code = http.StatusBadGateway
		}
		c.JSON(code, gin.H{"type": "sync", "data": outcomeView("manual", out)})
	}
}

func reloadHandler(facade Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := facade.Reload()
		c.JSON(http.StatusOK, gin.H{"type": "settings", "data": settingsView(s)})
	}
}

func settingsView(s config.Settings) map[string]SettingValue {
	return map[string]SettingValue{
		"Server":            {Value: s.Server.Get(), Default: !s.Server.Changed(), Source: s.Server.Source()},
		"Port":              {Value: s.Port.Get(), Default: !s.Port.Changed(), Source: s.Port.Source()},
		"PollIntervalHours": {Value: s.PollIntervalHours.Get(), Default: !s.PollIntervalHours.Changed(), Source: s.PollIntervalHours.Source()},
	}
}

func outcomeView(trigger string, out engine.Outcome) OutcomeView {
	v := OutcomeView{
		Trigger:  trigger,
		Result:   out.Result(),
		Stage:    out.Stage.String(),
		Failure:  out.Failure.String(),
		Server:   out.Server,
		Port:     out.Port,
		Started:  formatTime(out.Started),
		Received: formatTime(out.Received),
		Applied:  formatTime(out.Applied),
		OffsetMs: float64(out.Offset) / float64(time.Millisecond),
		QueryMs:  float64(out.QueryDuration) / float64(time.Millisecond),
	}
	if out.Err != nil {
		v.Error = out.Err.Error()
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
