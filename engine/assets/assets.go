package assets

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/time/rate"

	"github.com/spaghettifunk/imagedata/engine/core"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetInfo struct {
	/** @brief Resource name: the file name without extension. */
	Name string
	Path string
	/** @brief Format reported by the header probe, empty if probing failed. */
	Format string
	Width  int
	Height int
	Size   int64
	/** @brief Header probe error. The asset stays indexed and fails on load. */
	ProbeErr     error
	LastModified time.Time
}

// OnChange receives the paths of image files that were written or created.
// It runs on the watcher goroutine.
type OnChange func(paths []string)

// AssetManager indexes the image files of a directory tree and optionally
// watches it for changes.
type AssetManager struct {
	dir     string
	workers int
	assets  map[string]AssetInfo

	mutex sync.RWMutex

	fsnotify *fsnotify.Watcher
	isClosed bool
	done     chan struct{}
	wg       sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[string]struct{}
	wake      chan struct{}
}

// NewAssetManager creates a manager for dir. workers bounds the number of
// concurrent header probes; 0 means GOMAXPROCS.
func NewAssetManager(dir string, workers int) *AssetManager {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &AssetManager{
		dir:     dir,
		workers: workers,
		assets:  make(map[string]AssetInfo),
		done:    make(chan struct{}),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Scan walks the directory and probes every image header concurrently.
func (am *AssetManager) Scan() ([]AssetInfo, error) {
	var paths []string
	err := filepath.WalkDir(am.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	infos := make([]AssetInfo, len(paths))
	swg := sizedwaitgroup.New(am.workers)
	for i, path := range paths {
		swg.Add()
		go func(i int, path string) {
			defer swg.Done()
			infos[i] = probe(path)
		}(i, path)
	}
	swg.Wait()

	var total int64
	am.mutex.Lock()
	for _, info := range infos {
		am.assets[info.Path] = info
		total += info.Size
	}
	am.mutex.Unlock()

	core.LogInfo("indexed %d images in %s (%s)", len(infos), am.dir, humanize.Bytes(uint64(total)))
	return am.Assets(), nil
}

// Assets returns the index sorted by name.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

// Watch starts watching the directory tree. Changed files are collected and
// handed to onChange at most once per interval.
func (am *AssetManager) Watch(interval time.Duration, onChange OnChange) error {
	if am.isClosed {
		return ErrWatcherClosed
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	if err := am.watchRecursive(am.dir); err != nil {
		fsWatch.Close()
		return err
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	am.wg.Add(2)
	go am.start()
	go am.flush(limiter, onChange)
	return nil
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	if am.fsnotify != nil {
		return am.fsnotify.Close()
	}
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if !IsImageFile(e.Name) {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

// flush hands pending changes to onChange, throttled by limiter so a burst of
// writes to one file triggers a single reload.
func (am *AssetManager) flush(limiter *rate.Limiter, onChange OnChange) {
	defer am.wg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-am.done
		cancel()
	}()

	for {
		select {
		case <-am.wake:
		case <-am.done:
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		am.pendingMu.Lock()
		paths := make([]string, 0, len(am.pending))
		for p := range am.pending {
			paths = append(paths, p)
		}
		am.pending = make(map[string]struct{})
		am.pendingMu.Unlock()

		if len(paths) > 0 && onChange != nil {
			sort.Strings(paths)
			onChange(paths)
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	info := probe(path)
	am.mutex.Lock()
	am.assets[path] = info
	am.mutex.Unlock()

	am.pendingMu.Lock()
	am.pending[path] = struct{}{}
	am.pendingMu.Unlock()

	select {
	case am.wake <- struct{}{}:
	default:
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
}

func probe(path string) AssetInfo {
	info := AssetInfo{
		Name: AssetName(path),
		Path: path,
	}
	file, err := os.Open(path)
	if err != nil {
		info.ProbeErr = err
		return info
	}
	defer file.Close()

	if st, err := file.Stat(); err == nil {
		info.Size = st.Size()
		info.LastModified = st.ModTime()
	}
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		core.LogWarn("cannot read image header of %s: %s", path, err)
		info.ProbeErr = err
		return info
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}

// AssetName is the resource name of the file at path.
func AssetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}
