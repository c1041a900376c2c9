package srctest

import (
	"fmt"
	"strconv"
	"strings"
)

// Family names a resampling engine family.
type Family int

const (
	// FamilySpeex is the speexdsp polyphase resampler.
	FamilySpeex Family = iota + 1

	// FamilySoxr is the soxr-style multi-stage resampler.
	FamilySoxr
)

// String returns the selector prefix without the trailing dash.
func (f Family) String() string {
	switch f {
	case FamilySpeex:
		return "speex"
	case FamilySoxr:
		return "soxr"
	default:
		return "unknown"
	}
}

// Recipe is a soxr quality tier.
type Recipe int

const (
	// RecipeQQ is the quick, cubic-interpolation tier. Unrecognized soxr
	// selectors fall back to it.
	RecipeQQ Recipe = iota

	// RecipeLQ is the low quality tier (16-bit precision).
	RecipeLQ

	// RecipeMQ is the medium quality tier (16-bit precision, wider passband).
	RecipeMQ

	// RecipeHQ is the high quality tier (24-bit precision).
	RecipeHQ

	// RecipeVHQ is the very high quality tier (32-bit precision).
	RecipeVHQ
)

// String returns the recipe suffix used in selectors.
func (r Recipe) String() string {
	switch r {
	case RecipeLQ:
		return recipeNameLQ
	case RecipeMQ:
		return recipeNameMQ
	case RecipeHQ:
		return recipeNameHQ
	case RecipeVHQ:
		return recipeNameVHQ
	default:
		return recipeNameQQ
	}
}

// Selector is a parsed resampler selection string.
type Selector struct {
	Family Family

	// Quality is the speex quality, QualityMin..QualityMax. Unused for soxr.
	Quality int

	// Recipe is the soxr tier. Unused for speex.
	Recipe Recipe
}

// String renders the canonical selector, e.g. "speex-5" or "soxr-hq".
func (s Selector) String() string {
	switch s.Family {
	case FamilySpeex:
		return speexPrefix + strconv.Itoa(s.Quality)
	case FamilySoxr:
		return soxrPrefix + s.Recipe.String()
	default:
		return "unknown"
	}
}

// ParseSelector parses a resampler selection string.
//
// "speex-N" selects the speex engine with quality N in [QualityMin, QualityMax].
// "soxr-qq", "soxr-lq", "soxr-mq", "soxr-hq" and "soxr-vhq" select a soxr
// recipe; any other "soxr-" suffix selects RecipeQQ. Everything else is an
// ErrConfig.
func ParseSelector(s string) (Selector, error) {
	switch {
	case strings.HasPrefix(s, speexPrefix):
		q, err := strconv.ParseUint(s[len(speexPrefix):], 10, 8)
		if err != nil || q > QualityMax {
			return Selector{}, fmt.Errorf("%w: invalid speex quality in %q (want %d-%d)", ErrConfig, s, QualityMin, QualityMax)
		}
		return Selector{Family: FamilySpeex, Quality: int(q)}, nil

	case strings.HasPrefix(s, soxrPrefix):
		return Selector{Family: FamilySoxr, Recipe: parseRecipe(s[len(soxrPrefix):])}, nil

	default:
		return Selector{}, fmt.Errorf("%w: unrecognized resampler: %s", ErrConfig, s)
	}
}

func parseRecipe(name string) Recipe {
	switch name {
	case recipeNameLQ:
		return RecipeLQ
	case recipeNameMQ:
		return RecipeMQ
	case recipeNameHQ:
		return RecipeHQ
	case recipeNameVHQ:
		return RecipeVHQ
	default:
		return RecipeQQ
	}
}

// New parses selector and constructs the matching resampler for buffers of
// type S. cfg.Format must be the format S carries.
func New[S Sample](selector string, cfg Config) (Resampler[S], error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	return NewFromSelector[S](sel, cfg)
}

// NewFromSelector constructs the resampler described by sel.
func NewFromSelector[S Sample](sel Selector, cfg Config) (Resampler[S], error) {
	if err := cfg.validateStream(); err != nil {
		return nil, err
	}

	if !cfg.Format.Supported() {
		return nil, fmt.Errorf("%w: unsupported sample format %s for %s resampler", ErrConfig, cfg.Format, sel.Family)
	}

	if want := FormatOf[S](); want != cfg.Format {
		return nil, fmt.Errorf("%w: sample format %s does not match %s buffers", ErrConfig, cfg.Format, want)
	}

	switch sel.Family {
	case FamilySpeex:
		return newSpeexResampler[S](cfg, sel.Quality)
	case FamilySoxr:
		return newSoxrResampler[S](cfg, sel.Recipe)
	default:
		return nil, fmt.Errorf("%w: unrecognized resampler: %s", ErrConfig, sel)
	}
}
