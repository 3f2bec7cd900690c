package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/notargets/gocut/InputParameters"
	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/integration"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/types"
	"github.com/notargets/gocut/utils"
)

// IntegrateCmd represents the integrate command
var IntegrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Measure each domain of the input file on a sequence of refined meshes",
	Long: `
Measures the volume, or the interface area for IF domains, of each domain at
time zero. With exact values in the input file, errors and convergence
orders are reported.

gocut integrate -I input.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		ip, cfg, err := processInput(fileName)
		if err != nil {
			return err
		}
		ip.Print()
		return RunIntegrate(cmd.OutOrStdout(), ip, cfg)
	},
}

func init() {
	rootCmd.AddCommand(IntegrateCmd)
	IntegrateCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Mesh\n\t- LevelSets\n\t- Domains")
}

func RunIntegrate(w io.Writer, ip *InputParameters.CutParameters, cfg types.Config) error {
	return refinementStudy(w, ip, cfg, measureSteady)
}

type measureFunc func(ip *InputParameters.CutParameters, cfg types.Config, m *mesh.Mesh,
	sets []domain.Set, level int) ([]float64, error)

func measureSteady(ip *InputParameters.CutParameters, cfg types.Config, m *mesh.Mesh,
	sets []domain.Set, _ int) (values []float64, err error) {
	fs, err := ip.LevelSetFuncs()
	if err != nil {
		return
	}
	lsets := make([]levelset.GridFunction, len(fs))
	for i, f := range fs {
		lsets[i] = levelset.InterpolateToP1(func(x []float64) float64 { return f(x, 0) }, m)
	}
	values = make([]float64, len(sets))
	for i, ds := range sets {
		if values[i], err = integration.Measure(m, lsets, ds, ip.Order, cfg); err != nil {
			return nil, fmt.Errorf("domain %s: %w", ds, err)
		}
	}
	return
}

func refinementStudy(w io.Writer, ip *InputParameters.CutParameters, cfg types.Config, measure measureFunc) error {
	sets, err := ip.DomainSets()
	if err != nil {
		return err
	}
	var rows []levelResult
	for level := 0; level < ip.Refinements; level++ {
		m, err := ip.BuildMesh(level)
		if err != nil {
			return err
		}
		values, err := measure(ip, cfg, m, sets, level)
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		cfg.Log().Info("level done", slog.Int("level", level), slog.Int("elements", m.NumElements), utils.MemUsage())
		rows = append(rows, levelResult{level: level, elements: m.NumElements, values: values})
	}
	printStudy(w, ip, sets, rows)
	return nil
}

func printStudy(w io.Writer, ip *InputParameters.CutParameters, sets []domain.Set, rows []levelResult) {
	for i, ds := range sets {
		fmt.Fprintf(w, "Domain %s\n", ds)
		if len(ip.Exact) == 0 {
			fmt.Fprintf(w, "%6s %10s %22s\n", "Level", "Elements", "Value")
		} else {
			fmt.Fprintf(w, "%6s %10s %22s %12s %8s\n", "Level", "Elements", "Value", "Error", "EOC")
		}
		for l, row := range rows {
			if len(ip.Exact) == 0 {
				fmt.Fprintf(w, "%6d %10d %22.15e\n", row.level, row.elements, row.values[i])
				continue
			}
			errCur := math.Abs(row.values[i] - ip.Exact[i])
			order := "-"
			if l > 0 {
				order = fmt.Sprintf("%8.3f", eoc(math.Abs(rows[l-1].values[i]-ip.Exact[i]), errCur))
			}
			fmt.Fprintf(w, "%6d %10d %22.15e %12.4e %8s\n", row.level, row.elements, row.values[i], errCur, order)
		}
	}
}
