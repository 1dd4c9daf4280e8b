// Package receipt issues donation receipt references.
package receipt

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"carewatch/pkg/domain"
)

// URLIssuer issues references of the form <base>/receipts/receipt_<uuid>.pdf.
// Rendering the PDF itself happens outside this service.
type URLIssuer struct {
	base string
}

func NewURLIssuer(baseURL string) *URLIssuer {
	return &URLIssuer{base: strings.TrimRight(baseURL, "/")}
}

func (i *URLIssuer) Issue(_ context.Context, _ domain.InstitutionID) (string, error) {
	return i.base + "/receipts/receipt_" + uuid.NewString() + ".pdf", nil
}
