package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. Init configures it; until then it writes text to stderr.
var Logger = logrus.New()

// Formatter writes one line per entry with a fresh event id so entries can be referenced
// from support requests.
type Formatter struct {
	SystemName string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "time=%s source=%s level=%s event_id=%s msg=%q",
		entry.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		f.SystemName,
		strings.ToUpper(entry.Level.String()),
		uuid.NewString(),
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init points the logger at stdout and, when file is set, a rotating log file as well.
func Init(level, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var out io.Writer = os.Stdout
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	Logger.SetOutput(out)
	Logger.SetFormatter(&Formatter{SystemName: "tasktrack"})
	Logger.SetLevel(lvl)

	Logger.WithField("file", file).Info("logger initialized")
	return nil
}
