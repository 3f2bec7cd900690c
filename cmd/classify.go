package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/notargets/gocut/InputParameters"
	"github.com/notargets/gocut/cutinfo"
	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/types"
	"github.com/notargets/gocut/utils"
)

// ClassifyCmd represents the classify command
var ClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Count the elements and facets of each domain",
	Long: `
Classifies the mesh of the given refinement level against each domain of the
input file. Moving level sets are classified over the first time slab.

gocut classify -I input.yaml -l 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		level, _ := cmd.Flags().GetInt("level")
		ip, cfg, err := processInput(fileName)
		if err != nil {
			return err
		}
		return RunClassify(cmd.OutOrStdout(), ip, cfg, level)
	},
}

func init() {
	rootCmd.AddCommand(ClassifyCmd)
	ClassifyCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	ClassifyCmd.Flags().IntP("level", "l", 0, "refinement level of the mesh")
}

func RunClassify(w io.Writer, ip *InputParameters.CutParameters, cfg types.Config, level int) (err error) {
	sets, err := ip.DomainSets()
	if err != nil {
		return
	}
	m, err := ip.BuildMesh(level)
	if err != nil {
		return
	}
	m.PrintStatistics(w)
	fs, err := ip.LevelSetFuncs()
	if err != nil {
		return
	}
	ci, err := cutinfo.NewCutInfo(m, cfg)
	if err != nil {
		return
	}
	if ip.IsMoving() {
		slab := levelset.TimeSlab{T0: 0, Dt: ip.FinalTime / float64(ip.NumSlabs)}
		lsets := make([]levelset.SpaceTimeGridFunction, len(fs))
		for i, f := range fs {
			lsets[i] = levelset.SpaceTimeInterpolateToP1(f, m, slab, ip.TimeOrder)
		}
		err = ci.UpdateSpaceTime(lsets...)
	} else {
		lsets := make([]levelset.GridFunction, len(fs))
		for i, f := range fs {
			lsets[i] = levelset.InterpolateToP1(func(x []float64) float64 { return f(x, 0) }, m)
		}
		err = ci.Update(lsets...)
	}
	if err != nil {
		return
	}

	fmt.Fprintf(w, "%-24s %12s %12s %12s %12s\n", "Domain", "Elements", "OfType", "Facets", "OfType")
	for _, ds := range sets {
		var counts [4]int
		for j, query := range []func(domain.Set) (utils.BitArray, error){
			ci.GetElementsWithContribution, ci.GetElementsOfType,
			ci.GetFacetsWithContribution, ci.GetFacetsOfType,
		} {
			ba, err := query(ds)
			if err != nil {
				return err
			}
			counts[j] = ba.NumSet()
		}
		fmt.Fprintf(w, "%-24s %12d %12d %12d %12d\n", ds, counts[0], counts[1], counts[2], counts[3])
	}
	if len(fs) == 1 {
		return printGhostPenalty(w, ci)
	}
	return
}

// printGhostPenalty reports the facets between cut elements and their
// neighbors with a NEG part, and the elements the stabilization touches.
func printGhostPenalty(w io.Writer, ci *cutinfo.CutInfo) error {
	var (
		neg = domain.MustSet(domain.Spec{domain.NEG})
		itf = domain.MustSet(domain.Spec{domain.IF})
		m   = ci.Mesh()
	)
	hasNeg, err := ci.GetElementsWithContribution(neg)
	if err != nil {
		return err
	}
	cut, err := ci.GetElementsOfType(itf)
	if err != nil {
		return err
	}
	facets, err := cutinfo.GetFacetsWithNeighborTypes(m, hasNeg, cut, cutinfo.NeighborOptions{UseAnd: true})
	if err != nil {
		return err
	}
	elems, err := cutinfo.GetElementsWithNeighborFacets(m, facets)
	if err != nil {
		return err
	}
	active, err := m.ActiveVertices(hasNeg)
	if err != nil {
		return err
	}
	ratios, err := ci.GetCutRatios()
	if err != nil {
		return err
	}
	var minRatio = 1.
	for _, k := range cut.Indices() {
		minRatio = min(minRatio, ratios[k])
	}
	fmt.Fprintf(w, "Ghost penalty facets: %d, elements: %d, active vertices: %d, smallest cut ratio: %.4e\n",
		facets.NumSet(), elems.NumSet(), active.NumSet(), minRatio)
	return nil
}
