package board

import (
	"regexp"
	"strings"
)

// The overlay understands a small set of display tags reported with a
// video feed: at most one aspect ratio, one rotation, and independent
// mirror flags.
var aspectClasses = map[string]string{
	"1:1":  "aspect-1-1",
	"3:2":  "aspect-3-2",
	"4:3":  "aspect-4-3",
	"16:9": "aspect-16-9",
}

var rotateClasses = map[string]string{
	"rotate90":  "rotate-90",
	"rotate180": "rotate-180",
	"rotate270": "rotate-270",
}

var aspectPattern = regexp.MustCompile(`^\d+:\d+$`)

const defaultAspect = "aspect-4-3"

// Transform is the parsed display geometry for one overlay view. The
// aspect ratio and rotation apply to the whole modal box; the flips
// mirror only the hosted media.
type Transform struct {
	Aspect string
	Rotate string
	FlipH  bool
	FlipV  bool
}

// ParseTransform maps display tags to a Transform. Unrecognized
// "N:M" ratios are ignored (the default box applies) and returned so
// the caller can log them; unknown tags are ignored silently.
func ParseTransform(tags []string) (Transform, []string) {
	transform := Transform{Aspect: defaultAspect}
	var ignored []string

	for _, tag := range tags {
		switch tag {
		case "flipH":
			transform.FlipH = true
		case "flipV":
			transform.FlipV = true
		default:
			if class, ok := rotateClasses[tag]; ok {
				transform.Rotate = class
			} else if class, ok := aspectClasses[tag]; ok {
				transform.Aspect = class
			} else if aspectPattern.MatchString(tag) {
				ignored = append(ignored, tag)
			}
		}
	}
	return transform, ignored
}

// ModalClasses are applied to the overlay box itself.
func (t Transform) ModalClasses() []string {
	classes := []string{t.Aspect}
	if t.Rotate != "" {
		classes = append(classes, t.Rotate)
	}
	return classes
}

// MediaClasses are applied to the hosted media only, never the frame
// chrome. Both flips together compose into a point inversion.
func (t Transform) MediaClasses() []string {
	var classes []string
	if t.FlipH {
		classes = append(classes, "flip-h")
	}
	if t.FlipV {
		classes = append(classes, "flip-v")
	}
	return classes
}

// PointInverted reports whether the media presentation is equivalent to
// a 180 degree mirror.
func (t Transform) PointInverted() bool {
	return t.FlipH && t.FlipV
}

func (t Transform) String() string {
	return strings.Join(append(t.ModalClasses(), t.MediaClasses()...), " ")
}
