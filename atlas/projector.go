package atlas

import "context"

// Algorithm names a dimensionality-reduction technique offered by the
// projection collaborator. The reduction itself is a black box to this
// package.
type Algorithm string

const (
	AlgorithmPCA  Algorithm = "pca"
	AlgorithmTSNE Algorithm = "tsne"
	AlgorithmUMAP Algorithm = "umap"
)

// Projector maps the weighted matrix to one 2-D coordinate per row, each
// component in [-1,1]. AxisPairProjector is the built-in fallback; real
// reductions plug in from outside.
type Projector interface {
	Project(ctx context.Context, m Matrix, algo Algorithm) ([]Coord, error)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(ctx context.Context, m Matrix, algo Algorithm) ([]Coord, error)

func (f ProjectorFunc) Project(ctx context.Context, m Matrix, algo Algorithm) ([]Coord, error) {
	return f(ctx, m, algo)
}
