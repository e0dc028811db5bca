package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"organtour/internal/api"
	"organtour/pkg/audio"
	"organtour/pkg/config"
	"organtour/pkg/core"
	"organtour/pkg/db"
	"organtour/pkg/event"
	"organtour/pkg/exhibit"
	"organtour/pkg/input"
	"organtour/pkg/logging"
	"organtour/pkg/probe"
	"organtour/pkg/store"
	"organtour/pkg/version"
	"organtour/pkg/viewpoint"
	"organtour/pkg/visits"
)

const pruneInterval = 24 * time.Hour

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("OrganTour Started", "version", version.String(), "config", configPath)

	st, err := initStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Startup Probes
	probes := []probe.Probe{probe.Store(st)}
	if appCfg.Audio.Enabled {
		probes = append(probes, probe.Files("Audio cues", cueFiles(appCfg.Audio.Cues), audio.CheckFile))
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	bus := event.NewBus()
	bus.Subscribe(logging.LogEvent)

	prefs := store.NewPreferences(st)
	ex, err := exhibit.Build(appCfg, prefs, bus)
	if err != nil {
		return fmt.Errorf("failed to build exhibit: %w", err)
	}
	if err := ex.Restore(ctx); err != nil {
		slog.Warn("Preferences restored but could not be saved", "error", err)
	}

	vol := initAudio(ctx, appCfg, prefs, bus)

	trigger := input.NewTrigger()
	vp, tracked, walker := initViewpoint(appCfg, ex, trigger)

	sched := setupScheduler(appCfg, vp, trigger, ex, vol, st)

	rec := visits.NewRecorder(st, visits.DefaultQueueSize)
	rec.Subscribe(bus)

	hub := api.NewEventHub(bus)
	defer hub.Close()

	exH := api.NewExhibitHandler(sched, ex, st, rec)
	if walker != nil {
		exH.SetRoute(walker.Route())
	}
	srv := api.NewServer(appCfg.Server.Address,
		exH,
		api.NewControlHandler(sched, trigger, ex.Display, tracked),
		api.NewPreferenceHandler(sched, ex.Locomotion, ex.Turn, vol),
		hub,
		cancel,
	)
	srv.Handler = loggingMiddleware(srv.Handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Start(gctx) })
	g.Go(func() error { return rec.Run(gctx) })
	g.Go(func() error { return runServerLifecycle(gctx, srv) })

	err = g.Wait()
	slog.Info("OrganTour Stopped", "error", err)
	return err
}

func initStore(cfg *config.Config) (store.Store, error) {
	if cfg.DB.Ephemeral {
		slog.Info("Store: ephemeral, preferences and views stay in memory")
		return store.NewMemoryStore(), nil
	}
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store.NewSQLiteStore(dbConn), nil
}

func cueFiles(cfg config.CueConfig) []string {
	paths := make([]string, 0, 3)
	for _, p := range audio.CuePaths(cfg) {
		paths = append(paths, p)
	}
	return paths
}

// initAudio loads the cues and restores the volume. It returns nil when audio is off.
func initAudio(ctx context.Context, cfg *config.Config, prefs audio.PreferenceStore, bus *event.Bus) *audio.VolumeControl {
	if !cfg.Audio.Enabled {
		slog.Info("Audio: disabled")
		return nil
	}

	player := audio.NewCuePlayer(nil)
	if err := player.Load(audio.CuePaths(cfg.Audio.Cues)); err != nil {
		// Missing cues only silence those cues.
		slog.Warn("Audio: some cues failed to load", "error", err)
	}
	audio.BindCues(bus, player)

	vol := audio.NewVolumeControl(player, prefs, bus, cfg.Audio.Volume)
	vol.ApplySavedPreference(ctx)
	return vol
}

// initViewpoint returns the pose source. tracked is set for headset input, walker for
// the scripted demo tour.
func initViewpoint(cfg *config.Config, ex *exhibit.Exhibit, trigger *input.Trigger) (vp viewpoint.Provider, tracked *viewpoint.Tracked, walker *viewpoint.Walker) {
	if cfg.Viewpoint.Provider == config.ViewpointWalker {
		stops := make([]viewpoint.Stop, 0, len(ex.Hotspots))
		for _, h := range ex.Hotspots {
			stops = append(stops, viewpoint.Stop{Name: h.Name(), Target: h.Config().Position})
		}
		walker = viewpoint.NewWalker(viewpoint.WalkerConfig{
			Start:     cfg.Viewpoint.Start,
			EyeHeight: float64(cfg.Viewpoint.EyeHeight),
			Speed:     cfg.Viewpoint.WalkSpeed,
			Dwell:     time.Duration(cfg.Viewpoint.Dwell),
		}, stops, trigger)
		slog.Info("Viewpoint: scripted walker", "stops", len(stops))
		return walker, nil, walker
	}

	tracked = viewpoint.NewTracked(viewpoint.DefaultStaleAfter)
	slog.Info("Viewpoint: waiting for tracked poses on the API")
	return tracked, tracked, nil
}

func setupScheduler(cfg *config.Config, vp viewpoint.Provider, trigger *input.Trigger, ex *exhibit.Exhibit, vol *audio.VolumeControl, st store.VisitStore) *core.Scheduler {
	frame := core.Frame{
		Display:    ex.Display,
		Hotspots:   ex.Hotspots,
		Locomotion: ex.Locomotion,
		Turn:       ex.Turn,
	}
	if vol != nil {
		frame.Volume = vol
	}
	sched := core.NewScheduler(time.Duration(cfg.Ticker.FrameInterval), vp, trigger, frame)

	// View history retention (first run at startup, then daily)
	prune := visits.PruneJob(st, time.Duration(cfg.DB.ViewRetention))
	sched.AddJob(core.NewTimeJob("ViewRetention", pruneInterval, func(c context.Context, _ core.Snapshot) {
		prune(c)
	}))

	return sched
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.TraceDefault("API: request processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
