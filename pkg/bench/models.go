package bench

import "time"

// Run is one recorded execution of the benchmark driver.
type Run struct {
	ID              uint      `gorm:"primaryKey"`
	StartedAt       time.Time `gorm:"index"`
	ServerAddr      string
	ClientCount     int
	DatasetPaths    string // newline-joined, one per client
	TotalBytesRead  int64
	ElapsedSeconds  float64
	ProbeQueries    string  // newline-joined probe query strings, in order
	ProbeLatenciesS string  // newline-joined matching latencies, in seconds
}

// TableName pins the table name independent of Go's pluralization rules.
func (Run) TableName() string {
	return "benchmark_runs"
}
