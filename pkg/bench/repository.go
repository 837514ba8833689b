package bench

import (
	"strconv"
	"strings"
	"time"
)

// Summary is the in-memory shape the benchmark driver builds during a run,
// independent of whether it ends up persisted.
type Summary struct {
	StartedAt      time.Time
	ServerAddr     string
	DatasetPaths   []string
	TotalBytesRead int64
	Elapsed        time.Duration
	ProbeQueries   []string
	ProbeLatencies []time.Duration
}

// Repository records and retrieves Summary data through a Manager's
// database connection.
type Repository struct {
	mgr *Manager
}

// NewRepository returns a Repository backed by mgr.
func NewRepository(mgr *Manager) *Repository {
	return &Repository{mgr: mgr}
}

// RecordRun persists s as a new Run row.
func (r *Repository) RecordRun(s Summary) error {
	db := r.mgr.GetDB()
	if db == nil {
		return &StoreError{Op: "record_run", Err: strconv.ErrSyntax}
	}

	latencies := make([]string, 0, len(s.ProbeLatencies))
	for _, d := range s.ProbeLatencies {
		latencies = append(latencies, strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
	}

	run := Run{
		StartedAt:       s.StartedAt,
		ServerAddr:      s.ServerAddr,
		ClientCount:     len(s.DatasetPaths),
		DatasetPaths:    strings.Join(s.DatasetPaths, "\n"),
		TotalBytesRead:  s.TotalBytesRead,
		ElapsedSeconds:  s.Elapsed.Seconds(),
		ProbeQueries:    strings.Join(s.ProbeQueries, "\n"),
		ProbeLatenciesS: strings.Join(latencies, "\n"),
	}
	if err := db.Create(&run).Error; err != nil {
		return &StoreError{Op: "record_run", Err: err}
	}
	return nil
}

// ListRuns returns the most recent n runs, newest first. n <= 0 returns all.
func (r *Repository) ListRuns(n int) ([]Run, error) {
	db := r.mgr.GetDB()
	if db == nil {
		return nil, &StoreError{Op: "list_runs", Err: strconv.ErrSyntax}
	}

	query := db.Order("started_at desc")
	if n > 0 {
		query = query.Limit(n)
	}
	var runs []Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, &StoreError{Op: "list_runs", Err: err}
	}
	return runs, nil
}
