package atlas

import "fmt"

// Label is a cluster assignment: either membership in a numbered cluster or
// density-method noise. The legacy -1 sentinel exists only at serialization
// edges via Sentinel and LabelFromSentinel.
type Label struct {
	index int
	noise bool
}

// Noise marks a point the density method left unclustered.
var Noise = Label{noise: true}

// Member labels a point as belonging to cluster i.
func Member(i int) Label {
	if i < 0 {
		return Noise
	}
	return Label{index: i}
}

// Index returns the cluster number and whether the point is a member at all.
func (l Label) Index() (int, bool) {
	if l.noise {
		return 0, false
	}
	return l.index, true
}

// IsNoise reports whether the point was marked as noise.
func (l Label) IsNoise() bool { return l.noise }

// Sentinel converts to the legacy integer form, -1 meaning noise.
func (l Label) Sentinel() int {
	if l.noise {
		return -1
	}
	return l.index
}

// LabelFromSentinel converts from the legacy integer form.
func LabelFromSentinel(v int) Label {
	if v < 0 {
		return Noise
	}
	return Label{index: v}
}

func (l Label) String() string {
	if l.noise {
		return "noise"
	}
	return fmt.Sprintf("cluster %d", l.index)
}
