// Package encode maps codec-neutral quality, bitrate, speed, and two-pass
// parameters onto each external encoder's native flags. Every codec is its
// own strategy: "quality and bitrate both set" is a hard error for some tools
// and a constrained-quality mode for others, and that divergence is
// intentional.
package encode

import (
	"fmt"
	"math"

	"qtranscode/internal/services"
)

// Pass selects the two-pass stage. PassNone is single-pass.
type Pass int

const (
	PassNone   Pass = 0
	PassFirst  Pass = 1
	PassSecond Pass = 2
)

// Params carries the codec-neutral encoder inputs. Quality is a 0–10 scale
// rescaled per codec; quality and bitrate are pointers because zero is
// meaningful and "unset" must be distinguishable.
type Params struct {
	Quality   *float64
	Bitrate   *int
	Speed     int
	Pass      Pass
	StatsPath string
}

// QualityValue and BitrateValue build optional parameter values.
func QualityValue(v float64) *float64 { return &v }

func BitrateValue(v int) *int { return &v }

// validatePass enforces the two-pass contract: exactly one of {no pass,
// pass 1 + stats path, pass 2 + stats path}.
func validatePass(codec string, p Params) error {
	switch p.Pass {
	case PassNone:
		if p.StatsPath != "" {
			return services.Wrap(services.ErrInvalidParameter, "encode", codec, "stats path supplied without a pass number", nil)
		}
	case PassFirst, PassSecond:
		if p.StatsPath == "" {
			return services.Wrap(services.ErrInvalidParameter, "encode", codec, fmt.Sprintf("pass %d requires a stats path", p.Pass), nil)
		}
	default:
		return services.Wrap(services.ErrInvalidParameter, "encode", codec, fmt.Sprintf("pass %d outside {1,2}", p.Pass), nil)
	}
	return nil
}

// exclusiveRate rejects quality and bitrate both set, for codecs that define
// no combined rate-control mode.
func exclusiveRate(codec string, p Params) error {
	if p.Quality != nil && p.Bitrate != nil {
		return services.Wrap(services.ErrInvalidParameter, "encode", codec, "quality and bitrate are mutually exclusive", nil)
	}
	return nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
