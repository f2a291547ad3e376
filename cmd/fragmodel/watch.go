package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/fragmodel/compiler/gen"
	"github.com/syssam/fragmodel/compiler/load"
)

// debounce is how long the watcher waits for a burst of events to settle.
const debounce = 200 * time.Millisecond

// documentExts are the extensions whose changes trigger a rebuild.
var documentExts = []string{".graphql", ".graphqls", ".gql"}

// watch calls rebuild whenever a schema or fragment document, or the config
// file, changes. It returns when ctx is done.
func watch(ctx context.Context, cfg *gen.Config, config string, rebuild func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs, err := watchDirs(cfg, config)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	if config != "" {
		config = filepath.Clean(config)
	}
	log := cfg.Log()
	log.Info("watching for changes", "dirs", len(dirs))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, config) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// New directories under a watched tree may hold documents.
				_ = addTree(w, ev.Name)
			}
			log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		case <-fire:
			fire = nil
			rebuild()
		}
	}
}

// watchDirs returns every directory that holds a document of cfg, every
// directory below a pattern's static prefix, and the config file's directory.
func watchDirs(cfg *gen.Config, config string) ([]string, error) {
	patterns := append(slices.Clone(cfg.SchemaFiles), cfg.Fragments...)
	docs, err := load.Documents(patterns...)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, d := range load.Dirs(docs, patterns...) {
		sub, err := tree(d)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, sub...)
	}
	if config != "" {
		dirs = append(dirs, filepath.Dir(filepath.Clean(config)))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}

// tree returns dir and all directories below it.
func tree(dir string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

func addTree(w *fsnotify.Watcher, path string) error {
	dirs, err := tree(path)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// relevant reports whether ev touches a document or the config file.
// Chmod events are ignored.
func relevant(ev fsnotify.Event, config string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if config != "" && name == config {
		return true
	}
	if ev.Has(fsnotify.Create) && filepath.Ext(name) == "" {
		return true
	}
	return slices.Contains(documentExts, filepath.Ext(name))
}
