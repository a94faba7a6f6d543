package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/service/api"
	"github.com/viant/crewflow/service/event"
)

var (
	serveAddr      string
	serveWatch     bool
	serveLogEvents bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv, pipeline, err := newService(ctx)
		if err != nil {
			return err
		}
		defer srv.Close()
		rt := srv.Runtime()
		addr := serveAddr
		if addr == "" {
			addr = srv.Config().Server.Addr
		}
		if serveWatch {
			location := pipelineURL
			if strings.Contains(location, "://") {
				return fmt.Errorf("--watch requires a local pipeline file, got %s", location)
			}
			stopWatch, err := watchPipeline(ctx, rt, location)
			if err != nil {
				return err
			}
			defer stopWatch()
		}
		if serveLogEvents {
			logEvents(rt.Events())
		}
		if p := srv.Policy(); p != nil && p.Mode != policy.ModeAsk {
			stopPolicy := policy.Watch(ctx, rt.Approvals(), p, time.Second)
			defer stopPolicy()
		}
		server := &http.Server{Addr: addr, Handler: api.New(rt, api.WithNotFound(crewflow.ErrPipelineNotFound), api.WithProgress(rt.Progress()))}
		errs := make(chan error, 1)
		go func() { errs <- server.ListenAndServe() }()
		printStatus(cmd.OutOrStdout(), "▶", fmt.Sprintf("serving %s on %s", pipeline.Name, addr), color.FgCyan)

		select {
		case err = <-errs:
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		if sErr := rt.Shutdown(shutdownCtx); sErr != nil {
			log.Printf("serve: %v", sErr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload the pipeline file when it changes")
	serveCmd.Flags().BoolVar(&serveLogEvents, "log-events", false, "Log every run notice")
}

// logEvents logs what arrives on the catch-all queue; under load the
// oldest events are dropped.
func logEvents(events *event.Service) {
	events.SetListener(func(e *event.Event[any]) {
		if e == nil || e.Context == nil {
			return
		}
		log.Printf("event %s run=%s task=%s", e.Context.EventType, e.Context.RunID, e.Context.TaskID)
	})
}

// watchPipeline re-registers the pipeline at path on every write. Runs
// already started keep the definition they were started with.
func watchPipeline(ctx context.Context, rt *crewflow.Runtime, path string) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// editors replace files on save, so the directory is watched
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case change, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(change.Name) != abs || change.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reload(rt, abs)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch %s: %v", abs, err)
			}
		}
	}()
	return func() {
		close(done)
		watcher.Close()
	}, nil
}

func reload(rt *crewflow.Runtime, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("reload %s: %v", path, err)
		return
	}
	pipeline, err := rt.UpsertDefinition("file://"+path, data)
	if err != nil {
		printStatus(os.Stderr, "✗", fmt.Sprintf("reload %s: %v", path, err), color.FgRed)
		return
	}
	printStatus(os.Stdout, "↻", fmt.Sprintf("reloaded %s (%d tasks)", pipeline.Name, len(pipeline.Tasks)), color.FgGreen)
}
