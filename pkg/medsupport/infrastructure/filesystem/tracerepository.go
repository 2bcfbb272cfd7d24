package filesystem

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

const traceQueueCapacity = 128

// TraceRepository appends traces to a JSONL file, one trace per line. Writes happen in the background so that
// requests don't wait for the disk; Close flushes whatever is still queued.
type TraceRepository struct {
	path     string
	mutex    sync.Mutex
	file     *os.File
	jobQueue *common.JobQueue
	logger   common.Logger
}

// NewTraceRepository opens (or creates) the trace file for appending.
func NewTraceRepository(path string, logger common.Logger) (*TraceRepository, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	return &TraceRepository{
		path:     path,
		file:     file,
		jobQueue: common.NewJobQueue(traceQueueCapacity, logger),
		logger:   logger,
	}, nil
}

// OpenTraceRepositoryForReading is for tools which only look at what the server has recorded.
func OpenTraceRepositoryForReading(path string) *TraceRepository {
	return &TraceRepository{path: path}
}

func (t *TraceRepository) NextID() string {
	return uuid.NewString()
}

func (t *TraceRepository) Store(trace *domain.Trace) error {
	if t.file == nil {
		return errors.New("trace repository is read-only")
	}
	line, err := json.Marshal(trace)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	t.jobQueue.Enqueue(func() error {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		if _, err := t.file.Write(line); err != nil {
			return err
		}
		return t.file.Sync()
	})
	return nil
}

// FindLatest reads the whole file. Lines which can't be parsed (a half-written last line after a crash) are skipped.
func (t *TraceRepository) FindLatest(count int) ([]*domain.Trace, error) {
	lines, err := common.ReadAllLines(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var traces []*domain.Trace
	for i := len(lines) - 1; i >= 0 && len(traces) < count; i-- {
		var trace domain.Trace
		if err := json.Unmarshal([]byte(lines[i]), &trace); err != nil {
			if t.logger != nil {
				common.LogErrorf(t.logger, "failed to parse trace in the trace file: %s", lines[i])
			}
			continue
		}
		traces = append(traces, &trace)
	}
	return traces, nil
}

// Close waits for queued writes and closes the file.
func (t *TraceRepository) Close() error {
	if t.file == nil {
		return nil
	}
	t.jobQueue.Stop()
	return t.file.Close()
}
