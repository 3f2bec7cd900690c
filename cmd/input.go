package cmd

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/viper"

	"github.com/notargets/gocut/InputParameters"
	"github.com/notargets/gocut/types"
)

const exampleFile = `
########################################
Title: "Quarter circle"
Mesh:
  Dim: 2
  N: 8
  Split: true
LevelSets:
  - Shape: Sphere
    Center: [0, 0]
    Radius: 0.6
Domains: [NEG, POS, IF]
Exact: [0.28274333882308139, 0.71725666117691861, 0.94247779607693797]
Order: 2
Refinements: 4
########################################
`

func processInput(fileName string) (ip *InputParameters.CutParameters, cfg types.Config, err error) {
	if len(fileName) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
		return
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.CutParameters{}
	if err = ip.Parse(data); err != nil {
		return
	}
	if cfg, err = ip.ToConfig(); err != nil {
		return
	}
	if threads := viper.GetInt("threads"); threads > 0 {
		cfg.NumThreads = threads
	}
	cfg.Logger = slog.Default()
	return
}

// levelResult is one row of a refinement study
type levelResult struct {
	level, elements int
	values          []float64
}

func eoc(errPrev, errCur float64) float64 {
	return math.Log(errPrev/errCur) / math.Log(2)
}
