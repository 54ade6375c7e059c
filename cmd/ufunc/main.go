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

// Command ufunc is a command-line interface for applying reductions
// and expressions to labeled arrays stored in NetCDF files.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/ufunc/ufuncutil"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

func main() {
	if err := ufuncutil.Root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
