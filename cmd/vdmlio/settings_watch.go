package main

import (
	"context"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/mrajende/vdmlio/internal/scheduler"
)

// watchSettings reloads the settings file when it changes. The log level
// and autosave schedule apply at once; other fields are reported as
// needing a restart. Invalid settings are logged and ignored.
func watchSettings(ctx context.Context, a *app, autosaver *scheduler.Autosaver) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		a.logger.WarnContext(ctx, "settings reload disabled", "error", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(a.settingsPath)
	if err := watcher.Add(dir); err != nil {
		a.logger.DebugContext(ctx, "settings reload disabled", "dir", dir, "error", err)
		return
	}
	target := filepath.Clean(a.settingsPath)

	current := a.cfg
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			next, err := loadConfig(a.settingsPath)
			if err != nil {
				a.logger.WarnContext(ctx, "settings not reloaded", "error", err)
				continue
			}
			current = applySettings(ctx, a, autosaver, current, next)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.WarnContext(ctx, "settings watcher error", "error", err)
		}
	}
}

// applySettings applies what can change at runtime and returns the
// configuration now in effect.
func applySettings(ctx context.Context, a *app, autosaver *scheduler.Autosaver, old, next Config) Config {
	d := diffConfigs(old, next)
	applied := old

	if d.LogLevelChanged {
		if lvl, err := charmlog.ParseLevel(next.LogLevel); err == nil {
			a.charm.SetLevel(lvl)
			applied.LogLevel = next.LogLevel
			a.logger.InfoContext(ctx, "log level changed", "level", next.LogLevel)
		}
	}
	if d.AutosaveChanged && autosaver != nil {
		if _, err := autosaver.NextRun(next.AutosaveCron, time.Now()); err != nil {
			a.logger.WarnContext(ctx, "autosave schedule not changed", "schedule", next.AutosaveCron, "error", err)
		} else {
			_ = autosaver.Stop()
			if err := autosaver.Start(ctx, next.AutosaveCron); err != nil {
				a.logger.ErrorContext(ctx, "autosave restart failed", "error", err)
			} else {
				applied.AutosaveCron = next.AutosaveCron
			}
		}
	}
	if len(d.RestartNeeded) > 0 {
		a.logger.WarnContext(ctx, "settings changed that need a restart", "fields", d.RestartNeeded)
	}
	return applied
}
