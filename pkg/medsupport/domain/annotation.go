package domain

import (
	"regexp"
	"strconv"
)

// AbnormalityLabel the model is only asked to box abnormalities, so every box gets the same label.
const AbnormalityLabel = "Abnormality"

// The model answers with [ymin, xmin, ymax, xmax] on a 0-100 scale.
var boundingBoxRegexp = regexp.MustCompile(`\[(\d+(?:\.\d+)?),\s*(\d+(?:\.\d+)?),\s*(\d+(?:\.\d+)?),\s*(\d+(?:\.\d+)?)\]`)

// Annotation a region of interest. Box2D is [xmin, ymin, xmax, ymax], fractions of the image size.
type Annotation struct {
	Box2D [4]float64 `json:"box_2d"`
	Label string     `json:"label"`
}

// ExtractAnnotations finds every bounding box in the text. Boxes are neither deduplicated nor checked to be within
// the image. Never returns nil.
func ExtractAnnotations(text string) []Annotation {
	annotations := []Annotation{}
	for _, match := range boundingBoxRegexp.FindAllStringSubmatch(text, -1) {
		var values [4]float64
		for i := range values {
			// cannot fail: the regexp only captures decimal numbers
			values[i], _ = strconv.ParseFloat(match[i+1], 64)
		}
		yMin, xMin, yMax, xMax := values[0], values[1], values[2], values[3]
		annotations = append(annotations, Annotation{
			Box2D: [4]float64{xMin / 100, yMin / 100, xMax / 100, yMax / 100},
			Label: AbnormalityLabel,
		})
	}
	return annotations
}

// HasBoundingBox reports whether the text contains at least one bounding box.
func HasBoundingBox(text string) bool {
	return boundingBoxRegexp.MatchString(text)
}
