package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/notargets/gocut/InputParameters"
	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/integration"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
	"github.com/notargets/gocut/types"
)

// SpaceTimeCmd represents the spacetime command
var SpaceTimeCmd = &cobra.Command{
	Use:   "spacetime",
	Short: "Measure each domain in space-time over [0, FinalTime]",
	Long: `
Measures each domain of the input file in space-time, stepping through
NumSlabs time slabs on the coarsest mesh and doubling the slab count with
every refinement.

gocut spacetime -I input.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		ip, cfg, err := processInput(fileName)
		if err != nil {
			return err
		}
		ip.Print()
		return RunSpaceTime(cmd.OutOrStdout(), ip, cfg)
	},
}

func init() {
	rootCmd.AddCommand(SpaceTimeCmd)
	SpaceTimeCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- LevelSets with Velocity\n\t- FinalTime\n\t- NumSlabs")
}

func RunSpaceTime(w io.Writer, ip *InputParameters.CutParameters, cfg types.Config) error {
	return refinementStudy(w, ip, cfg, measureSpaceTime)
}

func measureSpaceTime(ip *InputParameters.CutParameters, cfg types.Config, m *mesh.Mesh,
	sets []domain.Set, level int) (values []float64, err error) {
	fs, err := ip.LevelSetFuncs()
	if err != nil {
		return
	}
	var (
		nSlabs = ip.NumSlabs << level
		slab   = levelset.TimeSlab{T0: 0, Dt: ip.FinalTime / float64(nSlabs)}
		lsets  = make([]levelset.SpaceTimeGridFunction, len(fs))
	)
	values = make([]float64, len(sets))
	for s := 0; s < nSlabs; s++ {
		if s == 0 {
			for i, f := range fs {
				lsets[i] = levelset.SpaceTimeInterpolateToP1(f, m, slab, ip.TimeOrder)
			}
		} else {
			lsets = advanceSlab(fs, m, slab, ip.TimeOrder, lsets)
		}
		for i, ds := range sets {
			v, err := integration.IntegrateSpaceTime(m, lsets, ds, func([]float64) float64 { return 1 },
				slab, ip.Order, 2*ip.TimeOrder, cfg)
			if err != nil {
				return nil, fmt.Errorf("slab %d, domain %s: %w", s, ds, err)
			}
			values[i] += v
		}
		slab = slab.Next()
	}
	return
}

// advanceSlab interpolates the level sets on slab, taking the values at the
// start of the slab from the end of the previous slab.
func advanceSlab(fs []levelset.SpaceTimeFunc, m *mesh.Mesh, slab levelset.TimeSlab, timeOrder int,
	prev []levelset.SpaceTimeGridFunction) (next []levelset.SpaceTimeGridFunction) {
	next = make([]levelset.SpaceTimeGridFunction, len(fs))
	for i, f := range fs {
		next[i] = levelset.SpaceTimeInterpolateToP1(f, m, slab, timeOrder)
		next[i].Values[0] = levelset.RestrictGFInTime(prev[i], 1).Values
	}
	return
}
