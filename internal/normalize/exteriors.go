package normalize

import (
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
)

// Exteriors zips the comma separated exterior types with their surfaces.
// A single type takes the whole surface cell as one decimal; several types
// expect surfaces separated by ", " exactly. Count mismatches are reported
// and missing surfaces become null.
func Exteriors(typesRaw, surfacesRaw, lotNumber string, sink issues.Sink) []domain.Exterior {
	if strings.TrimSpace(typesRaw) == "" {
		return nil
	}

	types := []string{}
	for _, t := range strings.Split(typesRaw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return nil
	}

	var surfaces []*float64
	if strings.TrimSpace(surfacesRaw) != "" {
		if len(types) == 1 {
			surfaces = []*float64{NumberPtr(surfacesRaw)}
		} else {
			for _, s := range strings.Split(surfacesRaw, ", ") {
				surfaces = append(surfaces, NumberPtr(s))
			}
		}
	}

	if len(surfaces) > 0 && len(surfaces) != len(types) {
		sink.Add(issues.Warning(
			domain.CodeEDDExteriorsCountMismatch,
			domain.EntityLot,
			lotNumber,
			fmt.Sprintf("Exteriors count (%d) != surfaces count (%d)", len(types), len(surfaces)),
			map[string]any{"exteriors": types, "surfaces": surfaces},
		))
	}

	out := make([]domain.Exterior, len(types))
	for i, t := range types {
		out[i] = domain.Exterior{Type: t}
		if i < len(surfaces) {
			out[i].SurfaceM2 = surfaces[i]
		}
	}
	return out
}
