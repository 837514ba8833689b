package client

// FileSystemError wraps a file-system-boundary failure (an unreadable file,
// a failed directory read) encountered during ingestion, so callers can
// inspect Op/Path without string-parsing.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	if e.Path != "" {
		return e.Op + " " + e.Path + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
