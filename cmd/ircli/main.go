package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"flowir/internal/ir"
)

// pipelineConfig is the YAML shape accepted by -config: which optimiser
// passes run and whether SSA conversion runs first. A nil
// pass pointer means "use the default (enabled)", so a config file can
// disable just one pass without having to spell out the rest.
type pipelineConfig struct {
	SSA        bool  `yaml:"ssa"`
	UnusedVars *bool `yaml:"unused_vars"`
	ConstProp  *bool `yaml:"const_prop"`
	DeadCode   *bool `yaml:"dead_code"`
	Branches   *bool `yaml:"branches"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (c pipelineConfig) passOptions() []ir.PassOption {
	return []ir.PassOption{
		ir.WithUnusedVars(boolOr(c.UnusedVars, true)),
		ir.WithConstProp(boolOr(c.ConstProp, true)),
		ir.WithDeadCode(boolOr(c.DeadCode, true)),
		ir.WithBranches(boolOr(c.Branches, true)),
	}
}

func loadConfig(path string) (pipelineConfig, error) {
	cfg := pipelineConfig{SSA: false}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML pipeline configuration")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}

	defer func() {
		if r := recover(); r != nil {
			if be, ok := r.(*ir.BugError); ok {
				color.Red("%s", be.Error())
				os.Exit(2)
			}
			panic(r)
		}
	}()

	f := buildDemoFunction()

	fmt.Println("-- before --")
	fmt.Print(ir.Print(f))

	if cfg.SSA {
		ir.ToSSA(f)
	}
	ir.Optimize(f, cfg.passOptions()...)

	fmt.Println("-- after --")
	fmt.Print(ir.Print(f))

	color.Green("✅ build %s optimised cleanly", f.BuildID())
}

// buildDemoFunction constructs a small constant-add function purely
// through the mutator API, the same way a front end emitting IR would.
func buildDemoFunction() *ir.Function {
	f := ir.NewFunction("demo_add")

	entry := f.CreateBlock("entry")
	exit := f.CreateBlock("exit")

	a := f.CreateVariable("a", ir.S32)
	entry.AppendBinary(a, ir.OpAdd,
		ir.ConstOperand(ir.IntConst(ir.S32, 2)),
		ir.ConstOperand(ir.IntConst(ir.S32, 3)))
	entry.AppendJump(exit)

	ret := ir.VarOperand(a)
	exit.AppendReturn(&ret)

	return f
}
