package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化并重新加载。
// 监听的是所在目录，编辑器以 rename 方式保存时也能收到事件。
type Watcher struct {
	Path    string
	OnError func(error) // 可选；重新加载失败时回调，旧配置继续生效
}

// Start 阻塞直到 ctx 结束；每次文件写入/创建后以最新配置回调 onUpdate。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(w.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// 只处理写入和创建事件
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadWithEnvOverrides(target)
			if err != nil {
				w.reportError(err)
				continue
			}
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

func (w Watcher) reportError(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
