package injection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one injection decision, recorded for offline budget tuning.
// Events are append-only and never read back by the engine.
type Event struct {
	ID                   string    `json:"id"`
	Tier                 int       `json:"tier"`
	Trigger              string    `json:"trigger"`
	ProjectID            string    `json:"project_id"`
	SessionID            string    `json:"session_id"`
	Considered           int       `json:"considered"`
	Selected             int       `json:"selected"`
	TokensUsed           int       `json:"tokens_used"`
	Budget               int       `json:"budget"`
	UtilizationPct       float64   `json:"utilization_pct"`
	BestScore            float64   `json:"best_score"`
	SkippedLowConfidence bool      `json:"skipped_low_confidence"`
	Drift                float64   `json:"drift"`
	Collections          []string  `json:"collections"`
	Timestamp            time.Time `json:"timestamp"`
}

// AuditLogger appends one JSON record per decision to an append-only file.
type AuditLogger struct {
	path   string
	logger *zap.Logger
}

// NewAuditLogger creates an audit logger writing to path.
func NewAuditLogger(path string, logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{path: path, logger: logger}
}

// Log appends one event as a JSON line. It is best-effort: recording a
// decision is strictly secondary to completing the user-visible turn, so
// every failure is discarded after a debug log.
func (l *AuditLogger) Log(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		l.logger.Debug("audit marshal failed", zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		l.logger.Debug("audit dir create failed", zap.Error(err))
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		l.logger.Debug("audit open failed", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		l.logger.Debug("audit write failed", zap.Error(err))
	}
}
