/*
Copyright © 2019 the InMAP authors.
This file is part of the ufunc library.

ufunc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ufunc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ufunc.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package ufuncutil holds the command-line interface for applying
// kernels to labeled arrays stored in NetCDF files.
package ufuncutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/ufunc"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the
	// commands below.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the NetCDF file holding the input
              variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the NetCDF result file will be
              written.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "Variables",
			usage: `
              Variables lists the input variables to operate on. A
              reduction is applied to each listed variable separately;
              an expression combines all of the listed variables.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "Over",
			usage: `
              Over lists the dimensions a reduction collapses, for
              example 'time' or 'lat,lon'. Dimensions not listed are
              kept in the output.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "Reduction",
			usage: `
              Reduction names the reduction to apply over the 'Over'
              dimensions: one of sum, mean, min, max, or stddev.`,
			shorthand:  "r",
			defaultVal: "mean",
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "Expr",
			usage: `
              Expr is an expression to evaluate element-by-element over
              the broadcast input variables, for example
              'so4 + no3 * 1.2'. The variable names in the expression
              must match the names listed in Variables. When Expr is
              set, Reduction and Over are ignored.`,
			shorthand:  "e",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "OutputName",
			usage: `
              OutputName is the name given to the result variable of an
              expression. The default is 'result'. Reduction results are
              named after their input variable, for example
              'temperature_mean'.`,
			defaultVal: "result",
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers bounds the number of concurrent kernel
              invocations. Zero means one per processor.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{applyCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("UFUNC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(applyCmd)
	Root.AddCommand(describeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ufunc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ufunc",
	Short: "Apply functions across labeled gridded data.",
	Long: `ufunc applies reductions and expressions to labeled arrays stored in
NetCDF files, broadcasting over the dimensions the function does not
operate on.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'UFUNC_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ufunc.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ufunc v%s\n", ufunc.Version)
	},
	DisableAutoGenTag: true,
}

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "List the variables in a NetCDF file.",
	Long: `describe lists the data variables in a NetCDF file along with their
dimensions, units, and descriptions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Describe(os.Stdout, os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a reduction or expression to NetCDF variables.",
	Long: `apply reads the variables named by the Variables configuration option
from InputFile, applies either the named Reduction over the Over
dimensions or the element-by-element expression Expr, and writes the
result to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Apply(Cfg)
	},
	DisableAutoGenTag: true,
}
