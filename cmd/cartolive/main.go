package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/b1naryth1ef/cartolive"
	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/b1naryth1ef/cartolive/tile"
	"github.com/b1naryth1ef/cartolive/web"
	"github.com/urfave/cli/v2"
)

func main() {
	configFlag := &cli.PathFlag{
		Name:  "config",
		Usage: "path to the configuration file",
		Value: "config.hcl",
	}
	worldFlag := &cli.StringFlag{
		Name:     "world",
		Usage:    "name of the world block to render",
		Required: true,
	}
	debugFlag := &cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	}

	app := &cli.App{
		Name:        "cartolive",
		Description: "minecraft map renderer that fills tiles outward from a point",
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "render a world around a center point",
				Action: commandRender,
				Flags: []cli.Flag{
					configFlag,
					worldFlag,
					debugFlag,
					&cli.IntFlag{Name: "x", Usage: "center block x"},
					&cli.IntFlag{Name: "z", Usage: "center block z"},
					&cli.IntFlag{Name: "radius", Usage: "render radius in blocks"},
					&cli.BoolFlag{Name: "full", Usage: "render every known region"},
					&cli.BoolFlag{
						Name:  "rescan",
						Usage: "list the region directory again instead of using the saved known regions",
					},
					&cli.BoolFlag{Name: "chat", Usage: "log a progress line on every tick"},
				},
			},
			{
				Name:   "regions",
				Usage:  "list the regions of a world that have data",
				Action: commandRegions,
				Flags:  []cli.Flag{configFlag, worldFlag, debugFlag},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func commandRender(ctx *cli.Context) error {
	logger := newLogger(ctx.Bool("debug"))

	config, err := cartolive.LoadConfig(ctx.Path("config"))
	if err != nil {
		return err
	}
	worldCfg, err := config.World(ctx.String("world"))
	if err != nil {
		return err
	}
	output, err := config.Output(worldCfg.Output)
	if err != nil {
		return err
	}

	opts := cartolive.Options{
		Center: coord.Block{X: ctx.Int("x"), Z: ctx.Int("z")},
		Radius: ctx.Int("radius"),
		Rescan: ctx.Bool("rescan"),
	}
	if ctx.Bool("full") {
		opts.Mode = cartolive.ModeFull
	} else if !ctx.IsSet("radius") {
		return errors.New("either --radius or --full is required")
	}

	tilePath := filepath.Join(output.Path, "tiles", worldCfg.Name)
	layers, err := buildLayers(config, worldCfg, tilePath)
	if err != nil {
		return err
	}

	metaPath := worldCfg.Meta
	if metaPath == "" {
		metaPath = filepath.Join(tilePath, "render.toml")
	}
	meta, err := cartolive.LoadMeta(metaPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", metaPath, err)
	}

	msgs := config.MessageTemplates()
	displays := cartolive.MultiStatus{cartolive.NewTerminalStatus(os.Stdout, msgs)}
	if output.Listen != "" {
		status := web.NewServer(logger)
		displays = append(displays, status)

		srv := &http.Server{Addr: output.Listen, Handler: status.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("progress page stopped", "addr", output.Listen, "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("serving progress page", "addr", output.Listen)
	}

	pool := cartolive.NewPool(context.Background(), config.Concurrency)
	console := cartolive.NewConsoleSender(logger)
	world := cartolive.NewWorld(cartolive.WorldConfig{
		Name:         worldCfg.Name,
		Storage:      cartolive.NewDirStorage(worldCfg.Path),
		Tiles:        layers,
		Executor:     pool,
		Log:          logger,
		Console:      console,
		Display:      displays,
		Messages:     msgs,
		Progress:     config.ProgressConfig(),
		KnownRegions: meta.Regions(),
	})

	job, err := world.StartRender(console, opts)
	if err != nil {
		return err
	}
	if ctx.Bool("chat") {
		job.Progress().ShowChat(console)
	}

	select {
	case <-job.Done():
	case <-ctx.Context.Done():
		logger.Info("interrupted, cancelling render")
		world.CancelRender(false)
		<-job.Done()
	}

	if err := pool.Wait(); err != nil {
		logger.Error("scan tasks failed", "err", err)
	}

	meta.SetRegions(world.KnownRegions())
	meta.Record(job)
	if err := meta.Save(metaPath); err != nil {
		return fmt.Errorf("failed to save %s: %w", metaPath, err)
	}

	if state := job.Progress().State(); state != cartolive.StateFinished {
		return cli.Exit(fmt.Sprintf("render of %s %s", worldCfg.Name, state), 1)
	}
	return nil
}

func buildLayers(config *cartolive.Config, worldCfg *cartolive.WorldConfigBlock, tilePath string) (tile.Layers, error) {
	layers := tile.Layers{}
	for _, name := range worldCfg.Layers {
		layerCfg, err := config.Layer(name)
		if err != nil {
			return nil, err
		}
		renderer, err := tile.NewRendererByName(layerCfg.Render)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
		layers = append(layers, tile.NewLayer(name, renderer, filepath.Join(tilePath, name), layerCfg.Opacity))
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("world %s has no layers", worldCfg.Name)
	}
	return layers, nil
}

func commandRegions(ctx *cli.Context) error {
	newLogger(ctx.Bool("debug"))

	config, err := cartolive.LoadConfig(ctx.Path("config"))
	if err != nil {
		return err
	}
	worldCfg, err := config.World(ctx.String("world"))
	if err != nil {
		return err
	}

	regions, err := cartolive.DiscoverRegions(ctx.Context, cartolive.NewDirStorage(worldCfg.Path))
	if err != nil {
		return err
	}
	for _, r := range regions.Regions() {
		fmt.Println(r.Filename("mca"))
	}
	fmt.Printf("%d regions\n", regions.Len())
	return nil
}
