package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/cache"
	"github.com/homelang/homec/pkg/codegen"
	"github.com/homelang/homec/pkg/elf"
)

const compilerVersion = "0.1.0"

// buildConfig collects build's tunables into one value threaded through
// runBuild/lower, grounded on go-corset's corset.CompilationConfig (a
// plain struct passed explicitly through pkg/cmd's command bodies rather
// than read from package-level state).
type buildConfig struct {
	out      string
	kernel   bool
	cacheDir string
	noCache  bool
}

func configFromFlags(cmd *cobra.Command, path string) buildConfig {
	cfg := buildConfig{
		out:      GetString(cmd, "out"),
		kernel:   GetFlag(cmd, "kernel"),
		cacheDir: GetString(cmd, "cache-dir"),
		noCache:  GetFlag(cmd, "no-cache"),
	}

	if cfg.out == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if cfg.kernel {
			cfg.out = base + ".s"
		} else {
			cfg.out = base
		}
	}

	return cfg
}

// buildCmd implements spec.md §6's build(source_path, out_path?, kernel)
// -> {ok|errors[]}: the full pipeline (parse, check, ownership, codegen,
// then either an ELF executable or GNU-as kernel-mode text), fronted by
// the incremental cache from spec.md §4.8.
var buildCmd = &cobra.Command{
	Use:   "build [flags] source_file",
	Short: "compile a Home source file into a native executable.",
	Long:  "build runs the full pipeline and emits either a statically linked ELF64 executable or, with --kernel, GNU-as assembly text.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			fatal(fmt.Errorf("build expects exactly one source file"))
		}

		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		runBuild(cmd, args[0])
	},
}

func init() {
	buildCmd.Flags().String("out", "", "output path (default: source file's base name without extension, plus .s with --kernel)")
	buildCmd.Flags().Bool("kernel", false, "emit GNU-as kernel-mode assembly instead of an ELF executable")
	buildCmd.Flags().String("cache-dir", ".home-cache", "incremental compilation cache directory")
	buildCmd.Flags().Bool("no-cache", false, "bypass the incremental cache entirely")
}

func runBuild(cmd *cobra.Command, path string) {
	cfg := configFromFlags(cmd, path)

	sourceBytes, err := os.ReadFile(path)
	if err != nil {
		fatal(fmt.Errorf("reading %s: %w", path, err))
	}

	target := "x86_64-linux"
	if cfg.kernel {
		target = "x86_64-linux-kernel"
	}

	key := cache.Key{
		SourceHash:      cache.SourceHash(sourceBytes),
		CompilerVersion: compilerVersion,
		Target:          target,
	}

	useCache := !cfg.noCache

	var c *cache.Cache
	if useCache {
		c, err = cache.Open(cfg.cacheDir)
		if err != nil {
			fatal(err)
		}

		if artifact, hit := c.Lookup(key); hit {
			log.Debug("cache hit")
			writeArtifact(cfg.out, artifact, cfg.kernel)

			return
		}

		log.Debug("cache miss")
	}

	prog, diags, err := checkUnit(path)
	if err != nil {
		fatal(err)
	}

	reportAndExit(diags)

	artifact := lower(prog, cfg.kernel)

	writeArtifact(cfg.out, artifact, cfg.kernel)

	if useCache {
		if err := c.Store(key, artifact); err != nil {
			log.Warnf("failed to populate cache: %s", err)
		}
	}
}

func lower(prog *ast.Program, kernel bool) []byte {
	if kernel {
		kprog, diags := codegen.GenerateAssembly(prog)
		reportAndExit(diags)

		return []byte(elf.EmitAssembly(kprog))
	}

	buf, diags := codegen.Generate(prog)
	reportAndExit(diags)

	return elf.Write(buf.Code)
}

func writeArtifact(out string, artifact []byte, kernel bool) {
	mode := os.FileMode(0o755)
	if kernel {
		mode = 0o644
	}

	if err := os.WriteFile(out, artifact, mode); err != nil {
		fatal(fmt.Errorf("writing %s: %w", out, err))
	}
}
