package scenefile

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"whiteboard/internal/service"
)

// debounce collapses the burst of events editors produce for one save.
const debounce = 500 * time.Millisecond

// Importer replaces a page's drawing with edited file content.
type Importer interface {
	ImportScene(ctx context.Context, pageID, data string) error
}

// Syncer mirrors every page's drawing to <dir>/<pageID>.json and imports the
// file back when something else edits it. It is an service.EventEmitter: hook
// it into the emitter chain and it writes on every drawing change.
type Syncer struct {
	dir      string
	importer Importer
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	written map[string]string // pageID -> last content written by us
}

// New creates dir if needed and starts watching it. Imports run with ctx.
func New(ctx context.Context, dir string, importer Importer) (*Syncer, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absDir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Syncer{
		dir:      absDir,
		importer: importer,
		watcher:  watcher,
		cancel:   cancel,
		done:     make(chan struct{}),
		written:  make(map[string]string),
	}
	go s.watchLoop(ctx)

	log.Printf("scenefile: syncing drawings with %s", absDir)
	return s, nil
}

// Path returns the file a page's drawing is mirrored to.
func (s *Syncer) Path(pageID string) string {
	return filepath.Join(s.dir, pageID+".json")
}

// Emit writes the drawing carried by a service.EventDrawingChanged. Other
// events are ignored.
func (s *Syncer) Emit(_ context.Context, event string, data any) {
	if event != service.EventDrawingChanged {
		return
	}
	dc, ok := data.(service.DrawingChanged)
	if !ok || dc.PageID == "" {
		return
	}
	if err := s.write(dc.PageID, dc.Data); err != nil {
		log.Printf("scenefile: write page %s: %v", dc.PageID, err)
	}
}

func (s *Syncer) write(pageID, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.written[pageID]; ok && prev == data {
		return nil
	}
	// Recorded before writing so the watcher event for our own write is
	// recognized.
	s.written[pageID] = data
	return os.WriteFile(s.Path(pageID), []byte(data), 0o644)
}

// Close stops watching. Pending imports are dropped.
func (s *Syncer) Close() error {
	s.cancel()
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *Syncer) watchLoop(ctx context.Context) {
	defer close(s.done)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pageID, ok := s.pageID(event.Name)
			if !ok {
				continue
			}
			if t, exists := timers[pageID]; exists {
				t.Stop()
			}
			timers[pageID] = time.AfterFunc(debounce, func() {
				s.load(ctx, pageID)
			})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("scenefile: watcher error: %v", err)
		}
	}
}

func (s *Syncer) pageID(name string) (string, bool) {
	if filepath.Dir(name) != s.dir || filepath.Ext(name) != ".json" {
		return "", false
	}
	id := strings.TrimSuffix(filepath.Base(name), ".json")
	return id, id != ""
}

// load imports the page file unless it holds what we last wrote.
func (s *Syncer) load(ctx context.Context, pageID string) {
	if ctx.Err() != nil {
		return
	}
	content, err := os.ReadFile(s.Path(pageID))
	if err != nil {
		log.Printf("scenefile: read page %s: %v", pageID, err)
		return
	}
	data := strings.TrimSpace(string(content))
	if data == "" {
		return
	}

	s.mu.Lock()
	own := s.written[pageID] == data
	if !own {
		s.written[pageID] = data
	}
	s.mu.Unlock()
	if own {
		return
	}

	log.Printf("scenefile: page %s edited on disk, importing", pageID)
	if err := s.importer.ImportScene(ctx, pageID, data); err != nil {
		log.Printf("scenefile: import page %s: %v", pageID, err)
	}
}
