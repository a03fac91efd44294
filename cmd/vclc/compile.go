package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/ir/interp"
	"github.com/hitoa/vclc/pkg/printer"
	"github.com/hitoa/vclc/pkg/session"
	"github.com/hitoa/vclc/pkg/verifier"
)

// runCompile drives one source file through parse -> emit -> (print, or
// verify -> submit+invoke), the single end-to-end path this
// demonstration CLI offers — grounded on cmd/testgen/main.go's rootCmd
// doing all its work directly in Run rather than delegating to a
// subcommand tree.
func runCompile(cmd *cobra.Command, args []string) {
	if flagVerbose {
		log.SetLevel(log.DebugLevel)
	}
	path := args[0]

	s := session.NewExecutionSession(session.Config{
		Logger:     log.StandardLogger(),
		ImportDirs: flagImportDirs,
		Defines:    flagDefines,
	})

	buf, err := s.Sources.LoadFromDisk(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vclc: %s\n", err)
		os.Exit(1)
	}

	m := s.CreateModule(buf)
	m.Emit()

	if flagPrint {
		fmt.Print(printer.String(m.Program))
		return
	}

	m.Verify(verifier.Settings{})

	hadError := false
	for _, d := range m.Diagnostics {
		if flagWerror && d.Severity == diag.Warning {
			d.Severity = diag.Error
		}
		diag.Render(os.Stderr, d)
		if d.Severity == diag.Error {
			hadError = true
		}
	}
	if hadError {
		os.Exit(1)
	}

	if err := s.SubmitModule(m); err != nil {
		fmt.Fprintf(os.Stderr, "vclc: submit: %s\n", err)
		os.Exit(1)
	}

	backend, ok := s.Backend().(*interp.Backend)
	if !ok {
		fmt.Fprintln(os.Stderr, "vclc: no JIT backend is wired in this build; pass --print to inspect the parsed program instead")
		os.Exit(1)
	}

	if _, err := backend.Invoke(flagEntry, nil); err != nil {
		fmt.Fprintf(os.Stderr, "vclc: invoke %q: %s\n", flagEntry, err)
		os.Exit(1)
	}
}
