package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger struct {
	// The level at which this logger logs. Any log messages intended for a higher
	// (more verbose) log level are ignored.
	Level

	// Tag used to filter and classify log messages.
	Tag string

	out io.Writer

	// Prevents messages from different goroutines from interleaving. Shared by
	// all derived loggers.
	mu *sync.Mutex

	// Level used when no directive names the tag. Nil means the global
	// default.
	fallback *Level
}

// NewLogger returns an untagged logger writing to out. It and the loggers
// derived from it keep level unless a directive names their tag.
func NewLogger(out io.Writer, level Level) *Logger {
	return &Logger{Level: level, out: out, mu: new(sync.Mutex), fallback: &level}
}

// Write to stderr by default, at the level set by LOGLEVEL.
var DefaultLogger = &Logger{Level: defaultLevel, out: os.Stderr, mu: new(sync.Mutex)}

// Override the destination for this logger.
func (log *Logger) SetDestination(out io.Writer) {
	log.mu.Lock()
	log.out = out
	log.mu.Unlock()
}

// Derive a new logger with the given tag. Look up the level based on the tag.
func (log *Logger) WithTag(tag string) *Logger {
	levelMu.Lock()
	defer levelMu.Unlock()
	return register(&Logger{
		Level:    determineLevel(tag, log.Level),
		Tag:      tag,
		out:      log.out,
		mu:       log.mu,
		fallback: log.fallback,
	})
}

// Derive a new logger with the given default level. This can still be overridden by
// LOGLEVEL.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	levelMu.Lock()
	defer levelMu.Unlock()
	return register(&Logger{
		Level:    determineLevel(log.Tag, level),
		Tag:      log.Tag,
		out:      log.out,
		mu:       log.mu,
		fallback: &level,
	})
}

// Enabled reports whether messages at the given level would be written.
func (log *Logger) Enabled(level Level) bool {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return level <= log.Level
}

// Wrapper for []byte that implements io.Writer. Simpler and cheaper than
// bytes.Buffer.
type buffer []byte

func (b *buffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// A global buffer pool, shared across all loggers.
var bufPool = sync.Pool{
	New: func() interface{} {
		b := make(buffer, 0, 256)
		return &b
	},
}

// Log a message at the given level. Include the file and line number from
// 'calldepth' steps up the call stack.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if !log.Enabled(level) {
		return
	}

	bp := bufPool.Get().(*buffer)
	buf := (*bp)[:0]

	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file = "?"
	}

	colorHeader.Fprint(&buf, time.Now().Format(timestampFormat))
	level.color().Fprintf(&buf, " %c/%s", level.letter(), log.Tag)
	colorHeader.Fprintf(&buf, "[%s:%d] ", filepath.Base(file), line)
	fmt.Fprintf(&buf, format, a...)
	if n := len(format); n == 0 || format[n-1] != '\n' {
		buf = append(buf, '\n')
	}

	log.mu.Lock()
	_, err := log.out.Write(buf)
	log.mu.Unlock()

	*bp = buf
	bufPool.Put(bp)

	if err != nil {
		panic(fmt.Sprintf("Failed to log to %v: %v", log.out, err))
	}
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}
