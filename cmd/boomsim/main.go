package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"boomtrees.dev/internal/observerproto"
	"boomtrees.dev/internal/persistence/indexdb"
	persistlog "boomtrees.dev/internal/persistence/log"
	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/encoding"
	"boomtrees.dev/internal/sim/tuning"
	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/feature/boomlog"
	"boomtrees.dev/internal/sim/world/feature/loot"
	"boomtrees.dev/internal/sim/world/grid"
	"boomtrees.dev/internal/sim/world/terrain/features"
	"boomtrees.dev/internal/sim/world/terrain/gen"
	"boomtrees.dev/internal/sim/world/terrain/store"
	"boomtrees.dev/internal/transport/observer"
)

func main() {
	var (
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir     = flag.String("data", "./data", "runtime data directory (audit logs, index)")
		seed        = flag.Int64("seed", 0, "override world seed (0 keeps tuning)")
		radius      = flag.Int("chunks", 2, "generate and populate chunks within this chunk radius of the origin")
		regrowTicks = flag.Int("regrow_ticks", 8, "regrowth ticks to run after the detonation")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite audit index")
		observeAddr = flag.String("observe", "", "loopback address for the audit observer feed (empty to disable)")
		hold        = flag.Duration("hold", 0, "keep the observer feed up this long after the run")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[boomsim] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.World.Seed = *seed
	}

	// Audit sinks: zstd JSONL is the source of truth, sqlite and the observer
	// feed are read models.
	var tick atomic.Uint64
	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()
	worldgenLog := persistlog.NewWorldgenLogger(*dataDir)
	defer worldgenLog.Close()
	sinks := audit.Fanout{auditLog}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
		sinks = append(sinks, idx)
	}

	hub := observer.NewHub(0)
	sinks = append(sinks, hub)
	var chunks atomic.Pointer[map[store.ChunkKey]observerproto.ChunkMsg]
	var httpSrv *http.Server
	if *observeAddr != "" {
		httpSrv, err = serveObserver(*observeAddr, hub, cats, tune, &tick, &chunks, logger)
		if err != nil {
			logger.Fatalf("observer: %v", err)
		}
	}
	sink := audit.Stamped{Sink: sinks, Tick: tick.Load}

	// Biome surgery.
	reg, err := features.NewRegistry(&cats.Biomes)
	if err != nil {
		logger.Fatalf("feature registry: %v", err)
	}
	biomeList, err := features.BuildBiomes(&cats.Biomes)
	if err != nil {
		logger.Fatalf("biomes: %v", err)
	}
	reports, err := features.ModifyBiomes(biomeList, tune.WorldGen, reg, logger)
	if err != nil {
		logger.Fatalf("modify biomes: %v", err)
	}
	for _, rep := range reports {
		_ = worldgenLog.WriteReport(rep)
		if idx != nil {
			_ = idx.WriteReport(rep)
		}
	}
	biomes := make(map[string]*features.Biome, len(biomeList))
	for _, b := range biomeList {
		biomes[b.Name] = b
	}

	// Terrain and decoration.
	wg, err := store.NewWorldGen(tune.World, &cats.Blocks, &cats.Biomes)
	if err != nil {
		logger.Fatalf("worldgen: %v", err)
	}
	world := store.NewChunkStore(wg, &cats.Blocks)
	pop := &gen.Populator{Blocks: &cats.Blocks, Registry: reg}
	placed := map[string]int{}
	for cz := -*radius; cz <= *radius; cz++ {
		for cx := -*radius; cx <= *radius; cx++ {
			world.GetOrGenChunk(cx, cz)
			b, ok := biomes[world.BiomeAt(cx*16, cz*16)]
			if !ok {
				continue
			}
			st := pop.Populate(world, cx, cz, b, gen.ChunkRand(tune.World.Seed, cx, cz))
			for name, n := range st.Placed {
				placed[name] += n
			}
		}
	}
	logger.Printf("generated %d chunks seed=%d placed=%v", len(world.Chunks), tune.World.Seed, placed)

	m := boomlog.New(world, &cats.Blocks, boomlog.Options{
		Drops:       world,
		Loot:        loot.NewRoller(&cats.Loot),
		Rand:        rand.New(rand.NewSource(tune.World.Seed)),
		BlastRadius: tune.Boom.BlastRadius,
		MaxChain:    tune.Boom.MaxChain,
		Audit:       sink,
	})

	logs := world.Find(func(c grid.Cell) bool { return cats.Blocks.IsExplosive(c.Block) })
	if len(logs) == 0 {
		logger.Printf("no explosive logs generated; try a larger -chunks or another -seed")
	} else {
		tick.Add(1)
		n := m.OnAttack(logs[0], grid.Actor{ID: "boomsim", Pos: logs[0].Center()})
		logger.Printf("tick %d: attack at %v detonated %d of %d logs (%d blasts)", tick.Load(), logs[0], n, len(logs), len(world.Blasts))
	}

	stripped := world.Find(m.NeedsRandomTicks)
	for i := 0; i < *regrowTicks && len(stripped) > 0; i++ {
		tick.Add(1)
		for _, p := range stripped {
			m.OnTick(p)
		}
		stripped = world.Find(m.NeedsRandomTicks)
	}
	logger.Printf("tick %d: %d logs still stripped", tick.Load(), len(stripped))
	chunks.Store(encodeChunks(world))

	if idx != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := idx.Flush(ctx); err != nil {
			logger.Printf("index flush: %v", err)
		} else if counts, err := idx.Reader().CountByAction(ctx); err == nil {
			logger.Printf("indexed audits: %v (dropped %d)", counts, idx.Stats().DropAuditTotal)
		}
		cancel()
	}

	if httpSrv != nil {
		if *hold > 0 {
			logger.Printf("holding observer feed for %s", *hold)
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-time.After(*hold):
			case <-sig:
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = httpSrv.Shutdown(ctx)
		cancel()
	}
}

// encodeChunks captures the world for the chunk endpoint once the run is
// over; the store itself is not safe for concurrent readers.
func encodeChunks(world *store.ChunkStore) *map[store.ChunkKey]observerproto.ChunkMsg {
	out := make(map[store.ChunkKey]observerproto.ChunkMsg, len(world.Chunks))
	for _, k := range world.LoadedChunkKeys() {
		ch := world.Chunks[k]
		d := ch.Digest()
		out[k] = observerproto.ChunkMsg{
			CX:     ch.CX,
			CZ:     ch.CZ,
			Height: ch.Height,
			Blocks: encoding.EncodeRuns(ch.BlockIDs()),
			Digest: hex.EncodeToString(d[:]),
		}
	}
	return &out
}

func serveObserver(addr string, hub *observer.Hub, cats *catalogs.Catalogs, tune tuning.Tuning, tick *atomic.Uint64, chunks *atomic.Pointer[map[store.ChunkKey]observerproto.ChunkMsg], logger *log.Logger) (*http.Server, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, errors.New("observer feed must listen on a loopback address")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats.Biomes.Biomes))
	for _, b := range cats.Biomes.Biomes {
		names = append(names, b.Name)
	}
	info := func() observerproto.BootstrapResponse {
		return observerproto.BootstrapResponse{
			Tick:          tick.Load(),
			Seed:          tune.World.Seed,
			BlockPalette:  cats.Blocks.Palette,
			PaletteDigest: cats.Blocks.PaletteDigest,
			Biomes:        names,
		}
	}
	chunkAt := func(cx, cz int) (observerproto.ChunkMsg, bool) {
		m := chunks.Load()
		if m == nil {
			return observerproto.ChunkMsg{}, false
		}
		msg, ok := (*m)[store.ChunkKey{CX: cx, CZ: cz}]
		return msg, ok
	}
	srv := &http.Server{
		Handler:           observer.NewServer(hub, info, logger).WithChunks(chunkAt).Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("observer: %v", err)
		}
	}()
	logger.Printf("observer feed on ws://%s/v1/audit", ln.Addr())
	return srv, nil
}
