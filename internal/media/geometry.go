package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimensions is a picture size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// IsZero reports whether the dimensions are unset.
func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Ratio returns width/height as an exact rational.
func (d Dimensions) Ratio() Rational {
	return NewRational(int64(d.Width), int64(d.Height))
}

// ParseDimensions parses "WxH" or "W:H".
func ParseDimensions(s string) (Dimensions, error) {
	s = strings.TrimSpace(s)
	sep := "x"
	if strings.Contains(s, ":") {
		sep = ":"
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return Dimensions{}, fmt.Errorf("dimensions %q: want WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("dimensions width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("dimensions height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return Dimensions{}, fmt.Errorf("dimensions %q: must be positive", s)
	}
	return Dimensions{Width: w, Height: h}, nil
}

// CropRect describes a crop window: output size plus top-left offset.
type CropRect struct {
	Width  int
	Height int
	X      int
	Y      int
}

// IsZero reports whether the crop is unset.
func (c CropRect) IsZero() bool {
	return c.Width == 0 && c.Height == 0
}

// FilterValue renders the crop in mencoder's W:H:X:Y form.
func (c CropRect) FilterValue() string {
	return fmt.Sprintf("%d:%d:%d:%d", c.Width, c.Height, c.X, c.Y)
}

// ParseCrop parses "W:H:X:Y".
func ParseCrop(s string) (CropRect, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return CropRect{}, fmt.Errorf("crop %q: want W:H:X:Y", s)
	}
	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return CropRect{}, fmt.Errorf("crop component %q: %w", part, err)
		}
		values[i] = v
	}
	if values[0] <= 0 || values[1] <= 0 || values[2] < 0 || values[3] < 0 {
		return CropRect{}, fmt.Errorf("crop %q: size must be positive, offsets non-negative", s)
	}
	return CropRect{Width: values[0], Height: values[1], X: values[2], Y: values[3]}, nil
}
