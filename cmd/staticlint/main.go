// The application is a custom static analysis binary that combines standard
// analyzers from the Go toolchain, third-party analyzers, and a
// project-specific analyzer into a single multichecker.Main invocation.
//
// The staticcheck analyzer set can be configured via a config.json file
// placed next to the binary; without one, the whole SA class is enabled.
package main

import (
	// Standard analyzers from the Go toolchain.
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	// Third-party analyzers.
	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"

	// Custom analyzer.
	"github.com/patric-chuzhbe/notesvc/cmd/staticlint/noosexit"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"honnef.co/go/tools/staticcheck"

	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Config is the name of the JSON configuration file that lists enabled
// staticcheck analyzers.
const Config = `config.json`

// ConfigData describes the structure of the configuration file.
// The Staticcheck field contains the names of enabled staticcheck analyzers,
// e.g., "SA1000", "SA4010".
type ConfigData struct {
	Staticcheck []string
}

func main() {
	myChecks := []*analysis.Analyzer{
		copylock.Analyzer,    // Checks for copying of locks by value.
		loopclosure.Analyzer, // Detects references to loop variables inside closures.
		lostcancel.Analyzer,  // Finds contexts that are not canceled.
		printf.Analyzer,      // Verifies format strings.
		structtag.Analyzer,   // Checks for incorrect struct field tags.
		unmarshal.Analyzer,   // Detects unused fields in JSON unmarshal targets.
		unreachable.Analyzer, // Detects unreachable code.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was created.

		noosexit.Analyzer, // Project-specific: forbids use of os.Exit in main.main.
	}

	checks := loadStaticcheckFilter()

	for _, v := range staticcheck.Analyzers {
		if checks == nil {
			if strings.HasPrefix(v.Analyzer.Name, "SA") {
				myChecks = append(myChecks, v.Analyzer)
			}
			continue
		}
		if checks[v.Analyzer.Name] {
			myChecks = append(myChecks, v.Analyzer)
		}
	}

	multichecker.Main(myChecks...)
}

// loadStaticcheckFilter reads the optional config file next to the binary.
// A nil map means no config was found and the default SA set applies.
func loadStaticcheckFilter() map[string]bool {
	appfile, err := os.Executable()
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if err != nil {
		return nil
	}

	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	checks := make(map[string]bool)
	for _, v := range cfg.Staticcheck {
		checks[v] = true
	}

	return checks
}
