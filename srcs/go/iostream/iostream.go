// Package iostream forwards the output streams of worker processes line by line.
package iostream

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lsds/kungfu-graph/srcs/go/log"
)

// Tee copies r to every writer of ws, one line at a time.
func Tee(r io.Reader, ws ...io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line += "\n"
			}
			for _, w := range ws {
				io.WriteString(w, line)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// PrefixWriter writes each line it receives to W prefixed by [Prefix].
// Writes are serialized so lines of concurrent processes do not interleave.
type PrefixWriter struct {
	Prefix string
	W      io.Writer
}

var writeMu sync.Mutex

func (x PrefixWriter) Write(bs []byte) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	if _, err := fmt.Fprintf(x.W, "[%s] %s", x.Prefix, bs); err != nil {
		return 0, err
	}
	return len(bs), nil
}

type lazyFile struct {
	name string
	f    *os.File
}

// NewLazyFile returns a writer creating filename on its first write.
func NewLazyFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename}
}

func (f *lazyFile) Write(bs []byte) (int, error) {
	if f.f == nil {
		var err error
		if f.f, err = os.Create(f.name); err != nil {
			return 0, err
		}
	}
	return f.f.Write(bs)
}

func (f *lazyFile) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// StreamWatcher keeps the last lines of a stream.
type StreamWatcher struct {
	name    string
	verbose bool

	history []string

	historyLimit  int
	historyMargin int
}

func NewStreamWatcher(name string, verbose bool) *StreamWatcher {
	return &StreamWatcher{
		name:          name,
		verbose:       verbose,
		historyLimit:  1000,
		historyMargin: 100,
	}
}

// Watch reads r until EOF. It must be called once.
func (w *StreamWatcher) Watch(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if w.verbose {
			log.Infof("[%s] %s", w.name, line)
		}
		w.history = append(w.history, line)
		if len(w.history) >= w.historyLimit+w.historyMargin {
			w.history = w.history[w.historyMargin:]
		}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("pipe [%s] ended with error: %v", w.name, err)
	}
}

// History returns the kept lines. It must not be called while Watch is running.
func (w *StreamWatcher) History() []string {
	return w.history
}
