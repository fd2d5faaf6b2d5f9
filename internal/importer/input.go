package importer

import (
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/sheet"
)

// Input is everything one reconciliation run reads.
type Input struct {
	TenantID      string
	CoproID       string
	Lots          sheet.Dataset // EDD
	OwnerRefs     sheet.Dataset // lot_ref
	Contacts      sheet.Dataset
	Addresses     []domain.PropertyAddress
	CadastralRefs []string
}

// PrimaryAddress returns the first address with role main, or nil.
func PrimaryAddress(addresses []domain.PropertyAddress) *domain.PropertyAddress {
	for _, a := range addresses {
		if a.Role == domain.AddressMain {
			addr := a
			return &addr
		}
	}
	return nil
}

// cleanAddresses trims labels, drops empty ones and keeps the first entry per label.
func cleanAddresses(in []domain.PropertyAddress) []domain.PropertyAddress {
	out := make([]domain.PropertyAddress, 0, len(in))
	seen := map[string]bool{}
	for _, a := range in {
		a.Label = strings.TrimSpace(a.Label)
		if a.Label == "" || seen[a.Label] {
			continue
		}
		seen[a.Label] = true
		out = append(out, a)
	}
	return out
}

func cleanRefs(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
