package l5cloud

import (
	"github.com/golang/geo/r3"

	"github.com/banshee-data/laserscan/internal/scan/l4geometry"
)

// Color is an 8-bit RGB point colour.
type Color = l4geometry.Color

// Delta is the set of points one frame contributed. Points and Colors always
// have the same length.
type Delta struct {
	Points []r3.Vector
	Colors []Color
}

// DeltaFromBatch drops the ROI bookkeeping from a filtered batch.
func DeltaFromBatch(b l4geometry.Batch) Delta {
	return Delta{Points: b.Points, Colors: b.Colors}
}

// Len returns the number of points.
func (d Delta) Len() int { return len(d.Points) }

// Empty reports whether the delta carries no points.
func (d Delta) Empty() bool { return len(d.Points) == 0 }

// clone returns a deep copy so queue consumers and the cloud never share
// backing arrays.
func (d Delta) clone() Delta {
	out := Delta{
		Points: make([]r3.Vector, len(d.Points)),
		Colors: make([]Color, len(d.Colors)),
	}
	copy(out.Points, d.Points)
	copy(out.Colors, d.Colors)
	return out
}

// Cloud is the concatenation of every delta ingested during a scan.
type Cloud struct {
	Points []r3.Vector
	Colors []Color
}

// Len returns the number of points.
func (c Cloud) Len() int { return len(c.Points) }

func (c *Cloud) append(d Delta) {
	c.Points = append(c.Points, d.Points...)
	c.Colors = append(c.Colors, d.Colors...)
}
