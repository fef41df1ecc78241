// Package log provides the append-only run log shared by every component of
// driverlib.
//
// Each call to Write appends one line to <dir>/log.txt, creating the
// directory when it is missing, and echoes the raw message to a console
// writer. The file is opened and closed on every call so that the log is
// complete up to the last line even when the process dies.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// TimestampFormat is the layout of the timestamp that starts every line.
const TimestampFormat = "2006/01/02 15:04:05.00"

// FileName is the name of the log file inside the log directory.
const FileName = "log.txt"

// DefaultDir is the directory used by the process-wide default logger.
const DefaultDir = "Logs"

const (
	functionField  = "function"
	exceptionField = "exception"
)

// Logger appends formatted lines to a log file and echoes messages to a
// console writer.
type Logger struct {
	l    *logrus.Logger
	path string
	now  func() time.Time
}

// New returns a Logger writing to <dir>/log.txt on fs. A nil console discards
// the echo.
func New(fs afero.Fs, dir string, console io.Writer) *Logger {
	path := filepath.Join(dir, FileName)
	l := logrus.New()
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(lineFormatter{})
	l.SetOutput(&appendFile{fs: fs, dir: dir, path: path})
	if console != nil {
		l.AddHook(&consoleHook{w: console})
	}
	return &Logger{l: l, path: path, now: time.Now}
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(lineFormatter{})
	return &Logger{l: l, now: time.Now}
}

// Path returns the path of the log file, or "" for a discarding Logger.
func (l *Logger) Path() string {
	return l.path
}

// Write appends "<timestamp>: <message> <function> <exception>" to the log
// file and echoes message to the console.
func (l *Logger) Write(message, function, exception string) {
	l.l.WithTime(l.now()).WithFields(logrus.Fields{
		functionField:  function,
		exceptionField: exception,
	}).Info(message)
}

// Printf writes a formatted message with no function or exception text.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Write(fmt.Sprintf(format, args...), "", "")
}

// Error writes message together with the failing function and err.
func (l *Logger) Error(message, function string, err error) {
	var exception string
	if err != nil {
		exception = err.Error()
	}
	l.Write(message, function, exception)
}

// Enter records the start of function.
func (l *Logger) Enter(function string) {
	l.Write("Starting function: "+function, "", "")
}

// Leave records the completion of function.
func (l *Logger) Leave(function string) {
	l.Write("Completed function: "+function, "", "")
}

// Format returns the log line for the given fields, without the trailing
// newline.
func Format(ts time.Time, message, function, exception string) string {
	return ts.Format(TimestampFormat) + ": " + message + " " + function + " " + exception
}

type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	function, _ := e.Data[functionField].(string)
	exception, _ := e.Data[exceptionField].(string)
	return []byte(Format(e.Time, e.Message, function, exception) + "\n"), nil
}

type consoleHook struct {
	w io.Writer
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(e *logrus.Entry) error {
	_, err := fmt.Fprintln(h.w, e.Message)
	return err
}

// appendFile opens, appends to and closes the log file on every write.
type appendFile struct {
	fs        afero.Fs
	dir, path string
}

func (a *appendFile) Write(p []byte) (n int, err error) {
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating log directory %q: %w", a.dir, err)
	}
	f, err := a.fs.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening log file %q: %w", a.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing log file %q: %w", a.path, cerr)
		}
	}()
	return f.Write(p)
}

var (
	mu  sync.RWMutex
	std *Logger
)

// Default returns the process-wide Logger. Unless replaced with SetDefault it
// writes to Logs/log.txt in the working directory and echoes to stdout.
func Default() *Logger {
	mu.RLock()
	l := std
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if std == nil {
		std = New(afero.NewOsFs(), DefaultDir, os.Stdout)
	}
	return std
}

// SetDefault replaces the process-wide Logger.
func SetDefault(l *Logger) {
	mu.Lock()
	std = l
	mu.Unlock()
}

// Write writes to the process-wide Logger.
func Write(message, function, exception string) {
	Default().Write(message, function, exception)
}
