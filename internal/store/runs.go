package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunRecord 一次引擎运行的记录
// Summary 是引擎结构化结果的 JSON 序列化
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	OK         bool      `json:"ok"`
	Summary    string    `json:"summary"`
}

// BuildSummaryJSON 把引擎结果序列化为 JSON（序列化失败降级为空对象）
func BuildSummaryJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// InsertRun 写入一条运行记录
func (s *Store) InsertRun(r RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, kind, started_at, finished_at, ok, summary)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Kind, r.StartedAt, r.FinishedAt, r.OK, r.Summary)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// ListRuns 列出运行记录（按开始时间倒序）
// kind 为空时不过滤；limit 非正时取默认 50 条
func (s *Store) ListRuns(kind string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, started_at, finished_at, ok, summary
		FROM runs
	`
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.OK, &r.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
