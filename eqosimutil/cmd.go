/*
Copyright © 2026 the eqosim authors.
This file is part of eqosim.

eqosim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

eqosim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with eqosim.  If not, see <http://www.gnu.org/licenses/>.
*/

package eqosimutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eqosim/eqosim"
	"github.com/eqosim/eqosim/thermo"
	_ "github.com/eqosim/eqosim/thermo/cubic" // register contributions
	_ "github.com/eqosim/eqosim/thermo/iapws" // register contributions
)

// Cfg holds the configuration information of the CLI harness.
var Cfg *viper.Viper

// Root is the main command.
var Root = &cobra.Command{
	Use:   "eqosim",
	Short: "eqosim is an equation-oriented steady-state process simulator",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "assemble the configured source model and solve it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd.OutOrStdout())
	},
}

var contributionsCmd = &cobra.Command{
	Use:   "contributions",
	Short: "list the registered thermodynamic contributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range thermo.ContributionNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "report thermodynamic parameters not covered by any source",
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := materialFromConfig()
		if err != nil {
			return err
		}
		missing := md.Store.GetMissingSymbols()
		if len(missing) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "all parameters covered")
			return nil
		}
		for name, unit := range missing {
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", name, unit)
		}
		return nil
	},
}

var options = []struct {
	name       string
	usage      string
	shorthand  string
	defaultVal interface{}
	flagsets   []*pflag.FlagSet
}{
	{
		name:       "config",
		usage:      "config specifies the configuration file location.",
		defaultVal: "",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "species_file",
		usage:      "species_file is the species database (YAML).",
		defaultVal: "species.yaml",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "structures_file",
		usage:      "structures_file holds the thermodynamic model structures.",
		defaultVal: "structures.yaml",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "parameter_files",
		usage:      "parameter_files are searched for parameter values in order.",
		defaultVal: []string{"parameters.yaml"},
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "units_file",
		usage:      "units_file optionally extends the unit registry.",
		defaultVal: "",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "structure",
		usage:      "structure names the thermodynamic model to instantiate.",
		shorthand:  "m",
		defaultVal: "",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "species",
		usage:      "species lists the species of the material.",
		defaultVal: []string{},
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name:       "max_iter",
		usage:      "max_iter is the Newton iteration budget.",
		defaultVal: 30,
		flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
	},
	{
		name:       "gamma",
		usage:      "gamma is the step-relaxation margin towards the bounds.",
		defaultVal: 0.9,
		flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
	},
}

func init() {
	Cfg = viper.New()
	for _, opt := range options {
		for _, fs := range opt.flagsets {
			switch v := opt.defaultVal.(type) {
			case string:
				fs.StringP(opt.name, opt.shorthand, v, opt.usage)
			case int:
				fs.IntP(opt.name, opt.shorthand, v, opt.usage)
			case float64:
				fs.Float64P(opt.name, opt.shorthand, v, opt.usage)
			case []string:
				fs.StringSliceP(opt.name, opt.shorthand, v, opt.usage)
			}
			if flag := fs.Lookup(opt.name); flag != nil {
				_ = Cfg.BindPFlag(opt.name, flag)
			}
		}
	}
	Root.AddCommand(runCmd, contributionsCmd, missingCmd)
}

// loadConfig reads the TOML configuration file named by the config
// option, if any, into Cfg.
func loadConfig() error {
	path := Cfg.GetString("config")
	if path == "" {
		return nil
	}
	var file map[string]interface{}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("eqosimutil: reading config %s: %w", path, err)
	}
	for key, value := range file {
		Cfg.Set(strings.ToLower(key), value)
	}
	return nil
}

// materialFromConfig assembles the configured material definition.
func materialFromConfig() (*thermo.MaterialDefinition, error) {
	if path := Cfg.GetString("units_file"); path != "" {
		if err := LoadUnitDefinitions(path); err != nil {
			return nil, err
		}
	}
	db, err := LoadSpeciesDB(Cfg.GetString("species_file"))
	if err != nil {
		return nil, err
	}
	if species := cast.ToStringSlice(Cfg.Get("species")); len(species) > 0 {
		db, err = db.Sub(species)
		if err != nil {
			return nil, err
		}
	}
	structures, err := LoadStructures(Cfg.GetString("structures_file"))
	if err != nil {
		return nil, err
	}
	name := Cfg.GetString("structure")
	structure, ok := structures[name]
	if !ok {
		return nil, fmt.Errorf("eqosimutil: unknown structure %q", name)
	}
	frame, err := thermo.NewFrame(db, structure)
	if err != nil {
		return nil, err
	}
	store := thermo.NewParameterStore("default")
	for _, path := range cast.ToStringSlice(Cfg.Get("parameter_files")) {
		src, err := LoadParameterSource(path)
		if err != nil {
			return nil, err
		}
		if err := store.AddSource(path, src); err != nil {
			return nil, err
		}
	}
	return thermo.NewMaterialDefinition(
		frame, thermo.StandardInitialState(frame.Species()), store)
}

// Run assembles the configured source model, solves it, and prints the
// iteration stream plus the exported final state.
func Run(out io.Writer) error {
	md, err := materialFromConfig()
	if err != nil {
		return err
	}
	specs := cast.ToStringMapString(Cfg.Get("specs"))
	if len(specs) == 0 {
		return fmt.Errorf("eqosimutil: no specs configured")
	}
	model := &SourceModel{Definition: md, Specs: specs}
	root, err := eqosim.Top(model, "source")
	if err != nil {
		return err
	}
	handler, err := eqosim.NewNumericHandler(root)
	if err != nil {
		return err
	}
	solver := eqosim.NewSimulationSolver(handler)
	solver.MaxIter = Cfg.GetInt("max_iter")
	solver.Gamma = Cfg.GetFloat64("gamma")
	solver.Output = out
	if _, err := solver.Solve(); err != nil {
		return err
	}
	state, err := handler.ExportState()
	if err != nil {
		return err
	}
	rendered, err := ExportResults(state)
	if err != nil {
		return err
	}
	_, err = out.Write(rendered)
	return err
}

// Main is the entry point of the CLI.
func Main() {
	if err := Root.Execute(); err != nil {
		log.Fatal(err)
	}
}
