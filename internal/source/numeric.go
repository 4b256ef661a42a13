package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/config"
	"github.com/jgivc/saidl/internal/entity"
)

const placeholder = "$"

// Numeric returns one target per number of the inclusive range, ascending.
func Numeric(cfg *config.NumConfig) ([]entity.FetchTarget, error) {
	count, err := cfg.Count()
	if err != nil {
		return nil, err
	}

	if !strings.Contains(cfg.Pattern, placeholder) {
		return nil, fmt.Errorf("%w: %q", common.ErrNoPlaceholder, cfg.Pattern)
	}

	targets := make([]entity.FetchTarget, 0, count)
	// The loop breaks on End, so n never steps past math.MaxInt.
	for n := cfg.Start; ; n++ {
		targets = append(targets, entity.FetchTarget{
			Index: len(targets),
			URL:   strings.ReplaceAll(cfg.Pattern, placeholder, strconv.Itoa(n)),
		})

		if n == cfg.End {
			break
		}
	}

	return targets, nil
}
