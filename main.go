package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/humboldt-xie/voxelworld/render"
	"github.com/humboldt-xie/voxelworld/terrain"
	"github.com/humboldt-xie/voxelworld/world"
)

var (
	configPath = flag.String("config", "", "config file (.yaml or .toml)")
	worldDir   = flag.String("world", "", "world directory, overrides config")
	pprofPort  = flag.String("pprof", "", "http pprof port")

	generate  = flag.String("generate", "", "generate a world of XxYxZ chunks, e.g. 4x1x4")
	walkSteps = flag.Int("walk", 0, "number of update steps to run")
	walkFrom  = flag.String("from", "0,16,0", "walk start position x,y,z")
	walkDir   = flag.String("dir", "1,0,0", "walk direction x,y,z")
	walkSpeed = flag.Float64("speed", 8, "distance moved per update step")

	tree       = flag.String("tree", "", "place a tree at x,y,z")
	treeSize   = flag.Int("tree-size", 40, "tree voxel count")
	house      = flag.String("house", "", "place a house at x,y,z")
	dome       = flag.String("dome", "", "place a ruined dome at x,y,z")
	tower      = flag.String("tower", "", "place a ruined cooling tower at x,y,z")
	wall       = flag.String("wall", "", "place a fortification wall from x,y,z:x,y,z")
	structSeed = flag.Int64("seed", 1, "seed for structure generation")

	report    = flag.String("report", "", "chunk file to inspect")
	reportOut = flag.String("report-out", "chunk_report.txt", "text report output")
	glbOut    = flag.String("glb", "", "export loaded chunk meshes to a .glb file")
	preview   = flag.String("preview", "", "write a top down preview image of loaded chunks")
)

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f,%f,%f", &v[0], &v[1], &v[2]); err != nil {
		return v, errors.Wrapf(err, "bad vector %q", s)
	}
	return v, nil
}

func parseSize(s string) (x, y, z int, err error) {
	if _, err = fmt.Sscanf(strings.ToLower(s), "%dx%dx%d", &x, &y, &z); err != nil {
		return 0, 0, 0, errors.Wrapf(err, "bad size %q", s)
	}
	if x < 1 || y < 1 || z < 1 {
		return 0, 0, 0, errors.Errorf("bad size %q", s)
	}
	return x, y, z, nil
}

// parseStructures builds the house and ruin structures requested by flags.
func parseStructures() ([]terrain.Structure, error) {
	var out []terrain.Structure
	at := map[*string]func(p mgl32.Vec3) terrain.Structure{
		house: func(p mgl32.Vec3) terrain.Structure { return terrain.NewHouse(p) },
		dome:  func(p mgl32.Vec3) terrain.Structure { return terrain.NewDome(p) },
		tower: func(p mgl32.Vec3) terrain.Structure { return terrain.NewCoolingTower(p) },
	}
	for _, f := range []*string{house, dome, tower} {
		if *f == "" {
			continue
		}
		p, err := parseVec3(*f)
		if err != nil {
			return nil, err
		}
		out = append(out, at[f](p))
	}
	if *wall != "" {
		w, err := parseWall(*wall)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func parseWall(s string) (terrain.Wall, error) {
	ends := strings.Split(s, ":")
	if len(ends) != 2 {
		return terrain.Wall{}, errors.Errorf("bad wall %q, want x,y,z:x,y,z", s)
	}
	start, err := parseVec3(ends[0])
	if err != nil {
		return terrain.Wall{}, err
	}
	end, err := parseVec3(ends[1])
	if err != nil {
		return terrain.Wall{}, err
	}
	return terrain.NewWall(start, end), nil
}

func run(cfg *Config, log *zap.Logger) error {
	if *report != "" {
		if err := world.ExportChunkReport(*report, *reportOut); err != nil {
			return err
		}
		log.Info("wrote chunk report", zap.String("src", *report), zap.String("out", *reportOut))
	}

	game, err := NewGame(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := game.Close(); err != nil {
			log.Error("close world", zap.Error(err))
		}
	}()

	if *generate != "" {
		nx, ny, nz, err := parseSize(*generate)
		if err != nil {
			return err
		}
		if err := game.Generate(nx, ny, nz); err != nil {
			return err
		}
	}

	pos, err := parseVec3(*walkFrom)
	if err != nil {
		return err
	}
	dir, err := parseVec3(*walkDir)
	if err != nil {
		return err
	}
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}

	rng := rand.New(rand.NewSource(*structSeed))
	if *tree != "" {
		p, err := parseVec3(*tree)
		if err != nil {
			return err
		}
		game.store.PlaceVoxels(terrain.Tree{Base: p, VoxelCount: *treeSize}.Generate(rng))
	}
	structures, err := parseStructures()
	if err != nil {
		return err
	}
	for _, st := range structures {
		game.store.PlaceVoxels(st.Generate(rng))
	}

	steps := *walkSteps
	if steps == 0 && (*glbOut != "" || *preview != "") {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		r := game.Update(pos)
		st := game.store.Stats()
		log.Debug("update",
			zap.Int("step", i),
			zap.Stringer("chunk", world.WorldToChunkCoord(pos)),
			zap.Int("loaded", st.Loaded),
			zap.Int("rebuilt", r.Rebuilt),
			zap.Int("bodies", game.activator.Active()),
			zap.Duration("spend", r.Spend))
		if hit := game.store.CastRay(pos, mgl32.Vec3{0, -1, 0}); hit.Hit {
			log.Debug("ground", zap.Stringer("voxel", hit.Voxel), zap.Float32("distance", hit.Distance))
		}
		pos = pos.Add(dir.Mul(float32(*walkSpeed)))
	}
	if steps > 0 {
		st := game.store.Stats()
		log.Info("walk done",
			zap.Int("steps", game.ticks.Count()),
			zap.Duration("avg", game.ticks.Avg()),
			zap.Duration("max", game.ticks.Max()),
			zap.Int("loaded", st.Loaded),
			zap.Int("missing", st.Missing),
			zap.Int("samples", st.Index.TotalItems),
			zap.Int("nodes", st.Index.TotalNodes),
			zap.Int("meshes", game.meshes.Len()),
			zap.Int("bodies", game.bodies.Len()))
	}

	if *glbOut != "" {
		if err := render.ExportGLB(game.store, *glbOut); err != nil {
			return err
		}
		log.Info("exported glb", zap.String("path", *glbOut))
	}
	if *preview != "" {
		if err := render.SaveTopDown(game.store, *preview, 4); err != nil {
			return err
		}
		log.Info("wrote preview", zap.String("path", *preview))
	}
	return nil
}

func main() {
	flag.Parse()
	cfg, err := LoadConfig(*configPath, WithWorldDir(*worldDir))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	go func() {
		if *pprofPort != "" {
			log.Fatal("pprof", zap.Error(http.ListenAndServe(*pprofPort, nil)))
		}
	}()
	if err := run(cfg, log); err != nil {
		log.Error("voxelworld", zap.Error(err))
		os.Exit(1)
	}
}
