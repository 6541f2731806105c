package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/agenthands/helix/internal/config"
	"github.com/agenthands/helix/internal/core"
	"github.com/agenthands/helix/internal/core/embedding"
	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/geo"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/query"
	"github.com/agenthands/helix/internal/record"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "helix",
	})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment as-is")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "schema":
		err = runSchema(args, logger)
	case "extract":
		err = runExtract(args, logger)
	case "import":
		err = runImport(args, logger)
	case "run":
		err = runPipeline(args, logger)
	case "embed":
		err = runEmbed(args, logger)
	case "geocode":
		err = runGeocode(args, logger)
	case "patient":
		err = runPatient(args, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", cmd, "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: helix <command> [flags]

commands:
  schema    apply constraints and indexes to the graph store
  extract   extract records from clinical texts (-in file | -sample) into -out
  import    import extracted records (-in records.json) [-strict] [-upsert]
  run       extract and import in one pass (-in file | -sample) [-strict] [-upsert]
  embed     backfill embeddings for nodes missing one
  geocode   backfill coordinates for addresses missing one
  patient   print the full record tree for a patient by name`)
}

func openDriver(ctx context.Context, cfg *config.Config, logger *log.Logger) (driver.GraphDriver, error) {
	return driver.Connect(ctx, cfg.Graph.Provider, driver.Options{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.User,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	}, logger)
}

func buildPipeline(ctx context.Context, cfg *config.Config, d driver.GraphDriver, logger *log.Logger, strict, upsert, withLLM bool) (*core.Pipeline, error) {
	mode, err := mapping.ParseMode(cfg.Import.Mode)
	if err != nil {
		return nil, err
	}
	if upsert {
		mode = mapping.ModeUpsert
	}

	var extractor *extraction.Extractor
	if withLLM {
		llmClient, _, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		extractor, err = extraction.NewExtractor(llmClient, cfg.Extraction.MaxTokens, cfg.Extraction.Prompt)
		if err != nil {
			return nil, err
		}
	}

	timeout := time.Duration(cfg.Import.TimeoutSeconds) * time.Second
	importer := core.NewImporter(d, mapping.NewMapper(mode), timeout, logger)
	return core.NewPipeline(d, extractor, importer, strict || cfg.Import.Strict, logger), nil
}

// readSources loads pipeline input: a JSON array of sources, or any
// other file taken whole as a single text.
func readSources(path string) ([]core.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if strings.HasSuffix(path, ".json") {
		var sources []core.Source
		if err := json.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("failed to parse sources from %s: %w", path, err)
		}
		return sources, nil
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []core.Source{{SourceID: name, Text: string(data)}}, nil
}

func resolveSources(in string, sample bool) ([]core.Source, error) {
	if sample {
		return sampleSources, nil
	}
	if in == "" {
		return nil, errors.New("need -in <file> or -sample")
	}
	return readSources(in)
}

func printSummary(s *core.Summary) {
	for _, o := range s.Outcomes {
		if o.Err != nil {
			fmt.Printf("fail  %-24s %v\n", o.SourceID, o.Err)
			continue
		}
		fmt.Printf("ok    %-24s patient=%q nodes=%d edges=%d\n",
			o.SourceID, o.Patient, o.Result.Nodes, o.Result.Edges)
	}
	fmt.Printf("processed=%d imported=%d failed=%d\n", s.Processed, s.Imported, s.Failed)
}

func runSchema(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	if cfg.Graph.Provider == "memgraph" {
		err = driver.EnsureMemgraphSchema(ctx, d, logger)
	} else {
		err = driver.EnsureSchema(ctx, d, cfg.LLM.EmbeddingDimensions)
	}
	if err != nil {
		return err
	}
	fmt.Println("schema applied")
	return nil
}

func runExtract(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "", "input texts file (json array of sources, or raw text)")
	out := fs.String("out", "records.json", "output records file")
	sample := fs.Bool("sample", false, "use the built-in demo texts")
	strict := fs.Bool("strict", false, "stop at the first failed extraction")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	sources, err := resolveSources(*in, *sample)
	if err != nil {
		return err
	}

	ctx := context.Background()
	llmClient, _, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	extractor, err := extraction.NewExtractor(llmClient, cfg.Extraction.MaxTokens, cfg.Extraction.Prompt)
	if err != nil {
		return err
	}

	var recs []*record.Record
	failed := 0
	for _, src := range sources {
		rec, err := extractor.Extract(ctx, src.SourceID, src.Text)
		if err != nil {
			failed++
			fmt.Printf("fail  %-24s %v\n", src.SourceID, err)
			if *strict {
				return err
			}
			continue
		}
		recs = append(recs, rec)
		fmt.Printf("ok    %-24s patient=%q\n", rec.Metadata.SourceID, rec.Patient.Name)
	}

	if err := record.WriteFile(*out, recs); err != nil {
		return err
	}
	fmt.Printf("extracted=%d failed=%d -> %s\n", len(recs), failed, *out)
	return nil
}

func runImport(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "records.json", "records file to import")
	strict := fs.Bool("strict", false, "stop at the first failed record")
	upsert := fs.Bool("upsert", false, "reuse nodes matched by natural keys")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	recs, err := record.ReadFile(*in)
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	pipe, err := buildPipeline(ctx, cfg, d, logger, *strict, *upsert, false)
	if err != nil {
		return err
	}

	summary, err := pipe.ImportRecords(ctx, recs)
	printSummary(summary)
	return err
}

func runPipeline(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	in := fs.String("in", "", "input texts file (json array of sources, or raw text)")
	sample := fs.Bool("sample", false, "use the built-in demo texts")
	strict := fs.Bool("strict", false, "stop at the first failure")
	upsert := fs.Bool("upsert", false, "reuse nodes matched by natural keys")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	sources, err := resolveSources(*in, *sample)
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	pipe, err := buildPipeline(ctx, cfg, d, logger, *strict, *upsert, true)
	if err != nil {
		return err
	}

	summary, err := pipe.RunBatch(ctx, sources)
	printSummary(summary)
	return err
}

func runEmbed(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	_, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if embedder == nil {
		return fmt.Errorf("llm provider %q cannot produce embeddings", cfg.LLM.Provider)
	}

	n, err := embedding.NewBackfiller(d, embedder, cfg.LLM.EmbeddingModel, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("embedded %d nodes\n", n)
	return nil
}

func runGeocode(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("geocode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	var geocoder geo.Geocoder
	switch cfg.Geocode.Provider {
	case "", "static":
		geocoder = geo.NewStaticGeocoder()
	case "google":
		geocoder, err = geo.NewGoogleGeocoder(cfg.Geocode.APIKey)
		if err != nil {
			return err
		}
	case "off":
		return errors.New("geocoding is disabled in configuration")
	default:
		return fmt.Errorf("unknown geocode provider %q", cfg.Geocode.Provider)
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	n, err := geo.NewBackfiller(d, geocoder, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("geocoded %d addresses\n", n)
	return nil
}

func runPatient(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("patient", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	name := fs.Arg(0)
	if name == "" {
		return errors.New("usage: helix patient <name>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	trees, err := query.NewLibrary(d, nil, logger).PatientByName(ctx, name)
	if err != nil {
		return err
	}
	if len(trees) == 0 {
		return fmt.Errorf("no patient named %q", name)
	}

	out, err := json.MarshalIndent(trees, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
