package netmatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	dbPostgres "github.com/kailas-cloud/netmatch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/netmatch/internal/db/redis"
)

type logLine struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	Error string `json:"error"`
}

func jsonLogger(buf *bytes.Buffer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: lvl}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []logLine {
	t.Helper()
	var out []logLine
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var l logLine
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("decode log line %q: %v", raw, err)
		}
		out = append(out, l)
	}
	return out
}

func TestServiceLogger_NilIsNop(t *testing.T) {
	if serviceLogger(nil).Core().Enabled(zap.ErrorLevel) {
		t.Error("expected a silent logger without WithLogger")
	}
}

func TestServiceLogger_ForwardsToSlog(t *testing.T) {
	var buf bytes.Buffer
	log := serviceLogger(jsonLogger(&buf, slog.LevelInfo)).With(zap.String("component", "search"))

	log.Debug("hidden")
	log.Warn("Structured search failed, falling back", zap.Error(errors.New("db down")), zap.Int("n", 3))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %s", len(lines), buf.String())
	}
	if lines[0].Level != "WARN" || lines[0].Msg != "Structured search failed, falling back" {
		t.Errorf("unexpected line %+v", lines[0])
	}
	if lines[0].Error != "db down" {
		t.Errorf("error attr = %q", lines[0].Error)
	}
	if !strings.Contains(buf.String(), `"component":"search"`) || !strings.Contains(buf.String(), `"n":3`) {
		t.Errorf("fields not forwarded: %s", buf.String())
	}
}

func TestExplainMatch_LogsPersistFailure(t *testing.T) {
	conn, sqlMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()
	cols := []string{"id", "name", "role", "location", "bio", "skills", "intents", "education", "employment"}
	for _, id := range []string{"u1", "u2"} {
		sqlMock.ExpectQuery("users").WillReturnRows(sqlmock.NewRows(cols).
			AddRow(id, "User "+id, "Engineer", "Austin", nil,
				[]byte(`[{"skill":{"name":"Go"}}]`), []byte(`[]`), []byte(`[]`), []byte(`[]`)))
	}

	ctrl := gomock.NewController(t)
	rc := mock.NewClient(ctrl)
	rc.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "netmatch:match:u1:u2")).
		Return(mock.Result(mock.RedisNil()))
	rc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return len(cmd) > 0 && cmd[0] == "SET" && cmd[len(cmd)-1] == "NX"
		})).
		Return(mock.ErrorResult(errors.New("READONLY You can't write against a read only replica")))

	var buf bytes.Buffer
	cfg := defaultConfig()
	cfg.logger = jsonLogger(&buf, slog.LevelInfo)
	cfg.completer = &mockCompleter{fn: func(context.Context, CompletionRequest) (CompletionResult, error) {
		return CompletionResult{Text: "Both build Go services in Austin.", Model: "m1"}, nil
	}}

	c := wireClient(dbPostgres.NewClientForTest(conn), dbRedis.NewStoreForTest(rc), cfg, nil)
	m, err := c.ExplainMatch(context.Background(), "u2", "u1")
	if err != nil {
		t.Fatalf("persist failure must not fail the call: %v", err)
	}
	if m.Analysis != "Both build Go services in Austin." || m.Cached {
		t.Errorf("unexpected match %+v", m)
	}

	var found bool
	for _, l := range decodeLines(t, &buf) {
		if l.Msg == "Failed to persist explanation" && l.Level == "ERROR" {
			found = true
			if !strings.Contains(l.Error, "READONLY") {
				t.Errorf("error attr = %q", l.Error)
			}
		}
	}
	if !found {
		t.Errorf("expected persist failure in caller's log, got %s", buf.String())
	}
	if err := sqlMock.ExpectationsWereMet(); err != nil {
		t.Errorf("sql expectations: %v", err)
	}
}
