// Package log writes pseudofs logs: messages to stdout and a daily file,
// errors with a callstack to a separate daily file and session events
// as toon-encoded records.
//
// Until Init is called with a directory nothing goes to files.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var (
	// if true, Verbosef() will log messages
	Verbose bool

	// where Logf() prints, in addition to the daily log file
	Stdout io.Writer = os.Stdout

	// nil until Init() with a directory
	logFile    *dailyFile
	errorsFile *dailyFile
	eventsFile *dailyFile
)

// dailyFile appends to <dir>/YYYY-MM-DD.txt, switching to a new file
// when UTC day changes. Methods are no-ops on nil.
type dailyFile struct {
	dir string

	mu  sync.Mutex
	day string
	f   *os.File
}

// file returns the file for now, opening it on first write of the day.
// must hold mu
func (df *dailyFile) file(now time.Time) (*os.File, error) {
	day := now.UTC().Format("2006-01-02")
	if df.f != nil && df.day == day {
		return df.f, nil
	}
	if df.f != nil {
		_ = df.f.Close()
		df.f = nil
	}
	if err := os.MkdirAll(df.dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(df.dir, day+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	df.f, df.day = f, day
	return f, nil
}

func (df *dailyFile) write(d []byte) error {
	if df == nil || len(d) == 0 {
		return nil
	}
	df.mu.Lock()
	defer df.mu.Unlock()
	f, err := df.file(time.Now())
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	return err
}

// close syncs and closes the current file
func (df *dailyFile) close() error {
	if df == nil {
		return nil
	}
	df.mu.Lock()
	defer df.mu.Unlock()
	if df.f == nil {
		return nil
	}
	errSync := df.f.Sync()
	errClose := df.f.Close()
	df.f = nil
	if errSync != nil {
		return errSync
	}
	return errClose
}

type Config struct {
	// logs go to Dir/log, Dir/errors and Dir/events
	// if empty, nothing is written to files
	Dir string
}

// Init closes previously opened files and starts logging to config.Dir.
// Files are created on first write.
func Init(config *Config) {
	Close()
	if config == nil || config.Dir == "" {
		return
	}
	logFile = &dailyFile{dir: filepath.Join(config.Dir, "log")}
	errorsFile = &dailyFile{dir: filepath.Join(config.Dir, "errors")}
	eventsFile = &dailyFile{dir: filepath.Join(config.Dir, "events")}
}

func Close() {
	for _, df := range []**dailyFile{&logFile, &errorsFile, &eventsFile} {
		_ = (*df).close()
		*df = nil
	}
}

func Logf(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if Stdout != nil {
		io.WriteString(Stdout, s)
	}
	_ = logFile.write([]byte(s))
}

func Verbosef(format string, args ...any) {
	if Verbose {
		Logf(format, args...)
	}
}

// callstack returns "file:line" of callers, one per line,
// skipping skip frames above the caller of callstack
func callstack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var lines []string
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			lines = append(lines, frame.File+":"+strconv.Itoa(frame.Line))
		}
		if !more {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func errorf(skip int, format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s += callstack(skip+1) + "\n"
	Logf("%s", s)
	_ = errorsFile.write([]byte(s))
}

// Errorf logs a message followed by the callstack to the regular
// and errors log
func Errorf(format string, args ...any) {
	errorf(1, format, args...)
}

// IfErrf logs and returns true if err is not nil.
// IfErrf(err) logs err.Error(), IfErrf(err, "save failed: %s", err) logs
// the formatted message.
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		errorf(1, "%s", err.Error())
		return true
	}
	format, ok := a[0].(string)
	if !ok {
		format = fmt.Sprint(a[0])
	}
	errorf(1, format, a[1:]...)
	return true
}

var hdrPrefix = []byte("--- ")

// MarshalEventLine serializes a named record as:
// --- <len> <unix ms> <name>\n<data>\n
// timestamp is skipped if t is zero, the final newline is only added
// if data doesn't end with one
func MarshalEventLine(name string, t time.Time, d []byte) []byte {
	var wb bytes.Buffer
	// it's ok to estimate more, estimating less will require an alloc
	wb.Grow(len(hdrPrefix) + len(name) + len(d) + 64)
	wb.Write(hdrPrefix)
	dataLen := len(d)
	wb.WriteString(strconv.Itoa(dataLen))
	if !t.IsZero() {
		wb.WriteString(" ")
		wb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	}
	if name != "" {
		wb.WriteString(" ")
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	if dataLen > 0 {
		wb.Write(d)
		if d[dataLen-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}

// eventKey returns v as a key of an event record.
// Only strings, numbers and bools can be keys.
func eventKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(k)
	}
	panic(fmt.Sprintf("Event: key of type %T", v))
}

// Event logs an event with key/value pairs, encoded as toon
func Event(name string, vals ...any) {
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("Event: odd number of vals (%d)", n))
	}
	var d []byte
	if n > 0 {
		m := make(map[string]any, n/2)
		for i := 0; i < n; i += 2 {
			m[eventKey(vals[i])] = vals[i+1]
		}
		d, _ = toon.Marshal(m)
	}
	_ = eventsFile.write(MarshalEventLine(name, time.Now(), d))
}

func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}
