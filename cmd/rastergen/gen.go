package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rastergen/rastergen"
	"github.com/rastergen/rastergen/internal/paramfile"
	"github.com/rastergen/rastergen/rbackend"
	"github.com/rastergen/rastergen/rmodule"
)

var (
	outDir     string
	baseName   string
	emitKinds  string
	targetFlag string
	paramsPath string
)

var genCmd = &cobra.Command{
	Use:   "gen [name=value ...]",
	Short: "Build a generator and emit its artifacts",
	Long: `Build a generator with the given parameters and emit the compiled
artifacts. Parameters come from an optional HCL file, the --target flag
and positional name=value pairs, applied in that order so the command
line wins.`,
	Args: cobra.ArbitraryArgs,
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVarP(&genName, "generator", "g", "", "generator name")
	_ = genCmd.MarkFlagRequired("generator")
	genCmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	genCmd.Flags().StringVarP(&baseName, "file", "f", "", "artifact base name (default: generator name)")
	genCmd.Flags().StringVarP(&emitKinds, "emit", "e", "object,assembly,bitcode,ir", "comma separated artifact kinds")
	genCmd.Flags().StringVarP(&targetFlag, "target", "t", "", "compilation target (default: host)")
	genCmd.Flags().StringVarP(&paramsPath, "params", "p", "", "HCL parameter file")
}

func runGen(cmd *cobra.Command, args []string) error {
	kinds, err := parseKinds(emitKinds)
	if err != nil {
		return err
	}

	inst, err := rastergen.Create(genName)
	if err != nil {
		return err
	}
	if paramsPath != "" {
		as, err := paramfile.Load(paramsPath)
		if err != nil {
			return err
		}
		if err := as.Apply(inst); err != nil {
			return err
		}
	}
	if targetFlag != "" {
		if err := inst.SetParamString("target", targetFlag); err != nil {
			return err
		}
	}
	if err := applyAssignments(inst, args); err != nil {
		return err
	}

	p, err := inst.Build()
	if err != nil {
		return err
	}
	m, err := rmodule.Lower(inst.Name(), inst.Target(), p)
	if err != nil {
		return err
	}
	emitter := rbackend.New(rbackend.WithLogger(logger))
	rep, err := emitter.Lower(m)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	base := baseName
	if base == "" {
		base = inst.Name()
	}
	for _, kind := range kinds {
		path := filepath.Join(outDir, base+kind.Ext())
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := emitter.Emit(rep, kind, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("wrote artifact", "path", path)
	}
	return nil
}

func parseKinds(csv string) ([]rbackend.ArtifactKind, error) {
	var kinds []rbackend.ArtifactKind
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind, err := rbackend.ParseArtifactKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no artifact kinds requested")
	}
	return kinds, nil
}
