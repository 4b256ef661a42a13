package config

import (
	"fmt"

	"github.com/jgivc/saidl/internal/common"
)

const (
	FlowIter FlowMode = "iter"
	FlowTOC  FlowMode = "toc"
	FlowNum  FlowMode = "num"
)

// FlowMode selects how the pages of a book are enumerated.
type FlowMode string

// IterationConfig follows a "next" link from BaseURL until StopURL has been processed.
type IterationConfig struct {
	BaseURL      string `yaml:"base_url"`
	NextSelector string `yaml:"next_selector"`
	StopURL      string `yaml:"stop_url"`
	RelativeBase string `yaml:"relative_base"` // Base for relative next links, current page when empty
	VoidSub      string `yaml:"void_sub"`      // Used when the next link is a placeholder like "#"
}

// TOCConfig takes every link of one index page.
type TOCConfig struct {
	BaseURL     string `yaml:"base_url"`
	TOCSelector string `yaml:"toc_selector"`
	VoidSub     string `yaml:"void_sub"`
}

// NumConfig substitutes "$" in Pattern with every number of [Start, End].
type NumConfig struct {
	Pattern string `yaml:"pattern"`
	Start   int    `yaml:"start"`
	End     int    `yaml:"end"`
}

// MaxNumTargets bounds the size of a numeric range.
const MaxNumTargets = 1 << 20

// Count returns the number of values in [Start, End].
func (c *NumConfig) Count() (int, error) {
	if c.Start > c.End {
		return 0, fmt.Errorf("%w: start %d > end %d", common.ErrInvalidRange, c.Start, c.End)
	}

	// Exact for any Start <= End, the int subtraction could overflow.
	width := uint64(c.End) - uint64(c.Start)
	if width >= MaxNumTargets {
		return 0, fmt.Errorf("%w: [%d, %d] has more than %d values", common.ErrInvalidRange, c.Start, c.End, MaxNumTargets)
	}

	return int(width) + 1, nil
}

// Flow is a tagged union, exactly one of Iter, TOC and Num is set according to Mode.
type Flow struct {
	Mode FlowMode
	Iter *IterationConfig
	TOC  *TOCConfig
	Num  *NumConfig
}

func (f *Flow) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var head struct {
		Mode FlowMode `yaml:"mode"`
	}

	if err := unmarshal(&head); err != nil {
		return err
	}

	*f = Flow{Mode: head.Mode}

	switch head.Mode {
	case FlowIter:
		var v struct {
			Args IterationConfig `yaml:"args"`
		}
		if err := unmarshal(&v); err != nil {
			return err
		}
		f.Iter = &v.Args
	case FlowTOC:
		var v struct {
			Args TOCConfig `yaml:"args"`
		}
		if err := unmarshal(&v); err != nil {
			return err
		}
		f.TOC = &v.Args
	case FlowNum:
		var v struct {
			Args NumConfig `yaml:"args"`
		}
		if err := unmarshal(&v); err != nil {
			return err
		}
		f.Num = &v.Args
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownFlow, head.Mode)
	}

	return nil
}

func (f *Flow) Validate() error {
	switch f.Mode {
	case FlowIter:
		if f.Iter == nil || f.Iter.BaseURL == "" || f.Iter.NextSelector == "" || f.Iter.StopURL == "" {
			return fmt.Errorf("iter flow requires base_url, next_selector and stop_url")
		}
	case FlowTOC:
		if f.TOC == nil || f.TOC.BaseURL == "" {
			return fmt.Errorf("toc flow requires base_url")
		}
	case FlowNum:
		if f.Num == nil || f.Num.Pattern == "" {
			return fmt.Errorf("num flow requires pattern")
		}

		if _, err := f.Num.Count(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownFlow, f.Mode)
	}

	return nil
}
