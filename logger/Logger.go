// Package logger implements a key-value logger for training metrics.
// Values are accumulated with LogKV and written to every output with
// DumpKVs, after which the accumulated values are cleared.
package logger

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Output writes a single set of key-value pairs. The keys are sorted.
type Output interface {
	WriteKVs(keys []string, kvs map[string]interface{}) error
	Close() error
}

// Format names an Output format
type Format string

// Available formats
const (
	Stdout Format = "stdout"
	Log    Format = "log"
	CSV    Format = "csv"
	JSON   Format = "json"
)

// Logger accumulates key-value pairs and writes them to its Outputs.
// A Logger is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	dir     string
	outputs []Output
	kvs     map[string]interface{}
}

// New returns a new Logger writing to outputs. If dir is not empty it
// is created and reported by Dir.
func New(dir string, outputs ...Output) (*Logger, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("new: could not create log directory: %v",
				err)
		}
	}

	return &Logger{
		dir:     dir,
		outputs: outputs,
		kvs:     make(map[string]interface{}),
	}, nil
}

// NewWithFormats returns a new Logger with one Output per format. The
// stdout format writes a table to os.Stdout. The log, csv, and json
// formats write to log.txt, progress.csv, and progress.json in dir
// respectively, and require dir to be set.
func NewWithFormats(dir string, formats ...Format) (*Logger, error) {
	l, err := New(dir)
	if err != nil {
		return nil, fmt.Errorf("newWithFormats: %v", err)
	}

	for _, format := range formats {
		out, err := l.newOutput(format)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("newWithFormats: %v", err)
		}
		l.outputs = append(l.outputs, out)
	}
	return l, nil
}

// Discard returns a Logger that writes nowhere
func Discard() *Logger {
	l, _ := New("", NewHumanOutput(ioutil.Discard))
	return l
}

func (l *Logger) newOutput(format Format) (Output, error) {
	if format == Stdout {
		return NewHumanOutput(os.Stdout), nil
	}

	if l.dir == "" {
		return nil, fmt.Errorf("newOutput: format %v requires a log "+
			"directory", format)
	}

	var filename string
	switch format {
	case Log:
		filename = "log.txt"
	case CSV:
		filename = "progress.csv"
	case JSON:
		filename = "progress.json"
	default:
		return nil, fmt.Errorf("newOutput: unknown format %v", format)
	}

	file, err := os.Create(filepath.Join(l.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("newOutput: could not create file: %v", err)
	}

	switch format {
	case CSV:
		return NewCSVOutput(file), nil
	case JSON:
		return NewJSONOutput(file), nil
	default:
		return NewHumanOutput(file), nil
	}
}

// Dir returns the log directory, or the empty string if there is none
func (l *Logger) Dir() string {
	return l.dir
}

// LogKV records the value of a key. If the key was already recorded
// since the last dump, its value is overwritten.
func (l *Logger) LogKV(key string, value interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kvs[key] = value
}

// DumpKVs writes all recorded key-value pairs to all outputs and
// clears them
func (l *Logger) DumpKVs() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.kvs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(l.kvs))
	for key := range l.kvs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []string
	for _, out := range l.outputs {
		if err := out.WriteKVs(keys, l.kvs); err != nil {
			errs = append(errs, err.Error())
		}
	}
	l.kvs = make(map[string]interface{})

	if len(errs) > 0 {
		return fmt.Errorf("dumpKVs: %v", strings.Join(errs, "; "))
	}
	return nil
}

// Close closes all outputs
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []string
	for _, out := range l.outputs {
		if err := out.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	l.outputs = nil

	if len(errs) > 0 {
		return fmt.Errorf("close: %v", strings.Join(errs, "; "))
	}
	return nil
}

// closeWriter closes w if it is an io.Closer other than os.Stdout or
// os.Stderr
func closeWriter(w io.Writer) error {
	if w == os.Stdout || w == os.Stderr {
		return nil
	}
	if closer, ok := w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
