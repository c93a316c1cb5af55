// Package pdfcheck validates downloaded payloads before they reach the
// print backend, so a corrupt file fails with a clear diagnosis instead of
// an opaque backend exit code.
package pdfcheck

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate checks that the file at path is a readable PDF. Validation is
// relaxed: structural damage that pdfcpu can tolerate passes.
func Validate(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("payload missing: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("payload is not a valid PDF: %w", err)
	}
	return nil
}
