package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/glowderm/internal/repository"
)

// fakeResult はPostgreSQLを使わずに削除件数を返すsql.Result。
type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// mockExecutor は発行されたSQLと引数を記録するExecutor。
type mockExecutor struct {
	mu     sync.Mutex
	calls  int
	query  string
	args   []interface{}
	result sql.Result
	err    error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.query = query
	m.args = args
	return m.result, m.err
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestJob(mock *mockExecutor) (*CleanupJob, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return NewCleanupJob(mock, logger), &buf
}

// logEntries はJSONログを1行ずつデコードする。
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestNewCleanupJob_DefaultRetentionDays(t *testing.T) {
	job, _ := newTestJob(&mockExecutor{result: &fakeResult{}})

	if job.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d, want %d", job.RetentionDays, DefaultRetentionDays)
	}
}

func TestCleanupJob_Run_DeletesStaleEntries(t *testing.T) {
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 5}}
	job, _ := newTestJob(mock)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if !strings.Contains(mock.query, "DELETE FROM kv_entries") {
		t.Errorf("クエリに 'DELETE FROM kv_entries' が含まれていない: %s", mock.query)
	}
	if !strings.Contains(mock.query, "updated_at") {
		t.Errorf("クエリに 'updated_at' 条件が含まれていない: %s", mock.query)
	}
	if len(mock.args) != 2 || mock.args[0] != "30 days" {
		t.Errorf("args = %v, want [30 days %s]", mock.args, repository.KeyAccounts)
	}
}

// 共有のアカウント一覧は削除対象から除外される
func TestCleanupJob_Run_KeepsAccountList(t *testing.T) {
	mock := &mockExecutor{result: &fakeResult{}}
	job, _ := newTestJob(mock)

	_ = job.Run(context.Background())

	if len(mock.args) < 2 || mock.args[1] != repository.KeyAccounts {
		t.Errorf("除外キー引数 = %v, want %q", mock.args, repository.KeyAccounts)
	}
	if !strings.Contains(mock.query, "key <> $2") {
		t.Errorf("クエリに除外条件が含まれていない: %s", mock.query)
	}
}

func TestCleanupJob_Run_CustomRetentionDays(t *testing.T) {
	mock := &mockExecutor{result: &fakeResult{}}
	job, _ := newTestJob(mock)
	job.RetentionDays = 7

	_ = job.Run(context.Background())

	if mock.args[0] != "7 days" {
		t.Errorf("interval引数 = %v, want %q", mock.args[0], "7 days")
	}
}

func TestCleanupJob_Run_LogsSummary(t *testing.T) {
	for _, deleted := range []int64{0, 42} {
		mock := &mockExecutor{result: &fakeResult{rowsAffected: deleted}}
		job, buf := newTestJob(mock)

		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run() がエラーを返した: %v", err)
		}

		found := false
		for _, entry := range logEntries(t, buf) {
			if entry["deleted_count"] == float64(deleted) {
				found = true
				if entry["retention_days"] != float64(30) {
					t.Errorf("retention_days = %v, want 30", entry["retention_days"])
				}
				if _, ok := entry["duration_ms"]; !ok {
					t.Error("ログに duration_ms が記録されていない")
				}
			}
		}
		if !found {
			t.Errorf("ログに deleted_count=%d が記録されていない。ログ出力: %s", deleted, buf.String())
		}
	}
}

func TestCleanupJob_Run_DBFailure(t *testing.T) {
	mock := &mockExecutor{err: sql.ErrConnDone}
	job, buf := newTestJob(mock)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("DBエラー時に Run() は nil でないエラーを返すべき")
	}
	if !strings.Contains(err.Error(), sql.ErrConnDone.Error()) {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

// 削除対象がなくても繰り返し実行できる
func TestCleanupJob_Run_Idempotent(t *testing.T) {
	mock := &mockExecutor{result: &fakeResult{}}
	job, _ := newTestJob(mock)

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目の Run() がエラーを返した: %v", i+1, err)
		}
	}
	if mock.callCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.callCount())
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 1}}
	job, _ := newTestJob(mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for mock.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mock.callCount() < 2 {
		t.Errorf("calls = %d, want >= 2", mock.callCount())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start がキャンセル後に終了しなかった")
	}
}
