package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"tracekeep/src/logger"
)

// Follower tails a log file like `tail -F`: it follows appends, starts over
// after truncation and reopens the path when the file is rotated.
type Follower struct {
	path        string
	sink        LineSink
	passthrough io.Writer
	logger      logger.Logger
	fromStart   bool

	// ready, when set, is closed once the watch is installed.
	ready chan struct{}

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial string
}

// FollowerOptions configures a Follower.
type FollowerOptions struct {
	// FromStart replays the existing content before following.
	FromStart   bool
	Passthrough io.Writer
	Logger      logger.Logger
}

// NewFollower creates a Follower for path.
func NewFollower(path string, sink LineSink, opts FollowerOptions) *Follower {
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	return &Follower{
		path:        filepath.Clean(path),
		sink:        sink,
		passthrough: opts.Passthrough,
		logger:      opts.Logger,
		fromStart:   opts.FromStart,
	}
}

// Run follows the file until ctx is done.
func (f *Follower) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so rotation (remove + create) is observed.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	if err := f.open(!f.fromStart); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	defer f.closeFile()

	if err := f.drain(); err != nil {
		return err
	}
	if f.ready != nil {
		close(f.ready)
	}

	for {
		select {
		case <-ctx.Done():
			f.flushPartial()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if err := f.handle(event); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("[Follower] Watch error on %s: %v", f.path, err)
		}
	}
}

func (f *Follower) handle(event fsnotify.Event) error {
	switch {
	case event.Op&fsnotify.Create != 0:
		f.logger.Debug("[Follower] %s created, reopening", f.path)
		f.flushPartial()
		f.closeFile()
		if err := f.open(false); err != nil {
			return f.tolerateMissing(err)
		}
		return f.drain()

	case event.Op&fsnotify.Write != 0:
		if f.file == nil {
			if err := f.open(false); err != nil {
				return f.tolerateMissing(err)
			}
		}
		return f.drain()

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		f.logger.Debug("[Follower] %s moved away, waiting for a new file", f.path)
		if err := f.drain(); err != nil {
			return err
		}
		f.flushPartial()
		f.closeFile()
	}
	return nil
}

func (f *Follower) open(atEnd bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}

	var offset int64
	if atEnd {
		if offset, err = file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return fmt.Errorf("failed to seek %s: %w", f.path, err)
		}
	}

	f.file = file
	f.reader = bufio.NewReaderSize(file, 64*1024)
	f.offset = offset
	f.partial = ""
	return nil
}

func (f *Follower) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
		f.reader = nil
	}
}

// drain reads every complete line currently in the file.
func (f *Follower) drain() error {
	if f.file == nil {
		return nil
	}

	if info, err := f.file.Stat(); err == nil && info.Size() < f.offset {
		f.logger.Debug("[Follower] %s truncated, starting over", f.path)
		if _, err := f.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind %s: %w", f.path, err)
		}
		f.reader.Reset(f.file)
		f.offset = 0
		f.partial = ""
	}

	for {
		chunk, err := f.reader.ReadString('\n')
		f.offset += int64(len(chunk))
		if err != nil {
			f.partial += chunk
			if len(f.partial) >= MaxLineSize {
				f.logger.Error("[Follower] %s: line exceeds %d bytes without a newline, delivering it early", f.path, MaxLineSize)
				f.flushPartial()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", f.path, err)
		}

		line := strings.TrimSuffix(f.partial+chunk, "\n")
		f.partial = ""
		if err := offer(line, f.sink, f.passthrough); err != nil {
			return err
		}
	}
}

// tolerateMissing swallows the error from a file that vanished between its
// event and the open; the next Create picks it up again.
func (f *Follower) tolerateMissing(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		f.logger.Debug("[Follower] %s gone before it could be opened", f.path)
		return nil
	}
	return err
}

// flushPartial delivers an unterminated last line.
func (f *Follower) flushPartial() {
	if f.partial == "" {
		return
	}
	line := f.partial
	f.partial = ""
	if err := offer(line, f.sink, f.passthrough); err != nil {
		f.logger.Error("[Follower] %v", err)
	}
}
