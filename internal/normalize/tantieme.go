package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
)

var (
	fractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	integerPattern  = regexp.MustCompile(`^\d+$`)
)

// Tantieme parses an ownership share written "num/den".
//   - empty: both unknown, no issue
//   - bare integer: numerator only, warning tantieme_denominator_missing
//   - anything else: both unknown, warning edd_tantieme_invalid_format
func Tantieme(raw, column, lotNumber string, sink issues.Sink) domain.Fraction {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Fraction{}
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, errNum := parseCount(m[1])
		den, errDen := parseCount(m[2])
		if errNum == nil && errDen == nil {
			return domain.Fraction{Num: &num, Den: &den}
		}
	} else if integerPattern.MatchString(s) {
		if num, err := parseCount(s); err == nil {
			sink.Add(issues.Warning(
				domain.CodeTantiemeDenominatorMissing,
				domain.EntityLot,
				lotNumber,
				fmt.Sprintf("Tantieme denominator missing for %s", column),
				map[string]any{"column": column, "value": s},
			))
			return domain.Fraction{Num: &num}
		}
	}

	sink.Add(issues.Warning(
		domain.CodeEDDTantiemeInvalidFormat,
		domain.EntityLot,
		lotNumber,
		fmt.Sprintf("Invalid tantieme format for %s: %q", column, s),
		map[string]any{"column": column, "value": s},
	))
	return domain.Fraction{}
}

func parseCount(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
