package automl

import (
	"fmt"
	"strconv"

	"github.com/theblitlabs/automl-studio/internal/dataset"
)

// FeatureSpec records how one source column maps into the design matrix.
type FeatureSpec struct {
	Name       string
	Numeric    bool
	Categories []string
}

// Encoder turns a table into a numeric design matrix: numeric columns pass
// through, categorical columns are one-hot encoded over the categories seen
// at fit time. It is persisted inside the model bundle so predictions see
// the training-time schema.
type Encoder struct {
	TargetColumn string
	Features     []FeatureSpec
	// Classes holds the label vocabulary for classification targets, in
	// first-encountered row order. Empty for regression.
	Classes []string
}

// FitEncoder builds an encoder from the training table. The target column
// must exist; every other column becomes a feature.
func FitEncoder(t *dataset.Table, target string, classification bool) (*Encoder, error) {
	targetCol, ok := t.Column(target)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", target)
	}

	enc := &Encoder{TargetColumn: target}
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Name == target {
			continue
		}
		spec := FeatureSpec{Name: c.Name, Numeric: c.Kind == dataset.Numeric}
		if !spec.Numeric {
			seen := make(map[string]bool)
			for row, s := range c.Strings {
				if c.Missing[row] || seen[s] {
					continue
				}
				seen[s] = true
				spec.Categories = append(spec.Categories, s)
			}
		}
		enc.Features = append(enc.Features, spec)
	}

	if classification {
		seen := make(map[string]bool)
		for row := 0; row < t.Rows(); row++ {
			if targetCol.Missing[row] {
				continue
			}
			label := targetValueString(targetCol, row)
			if !seen[label] {
				seen[label] = true
				enc.Classes = append(enc.Classes, label)
			}
		}
		if len(enc.Classes) < 2 {
			return nil, fmt.Errorf("target column %q has fewer than two classes", target)
		}
	}
	return enc, nil
}

func targetValueString(c *dataset.Column, row int) string {
	if c.Kind == dataset.Numeric {
		return strconv.FormatFloat(c.Floats[row], 'g', -1, 64)
	}
	return c.Strings[row]
}

// FeatureNames returns the expanded design-matrix column names.
func (e *Encoder) FeatureNames() []string {
	var names []string
	for _, f := range e.Features {
		if f.Numeric {
			names = append(names, f.Name)
			continue
		}
		for _, cat := range f.Categories {
			names = append(names, f.Name+"="+cat)
		}
	}
	return names
}

// SourceFeatureNames returns the original (pre-expansion) feature columns.
func (e *Encoder) SourceFeatureNames() []string {
	names := make([]string, len(e.Features))
	for i, f := range e.Features {
		names[i] = f.Name
	}
	return names
}

// Transform encodes feature rows. Missing numeric cells become zero and
// unseen categorical levels encode as all-zero indicator blocks.
func (e *Encoder) Transform(t *dataset.Table) ([][]float64, error) {
	width := len(e.FeatureNames())
	X := make([][]float64, t.Rows())
	for i := range X {
		X[i] = make([]float64, 0, width)
	}

	for _, f := range e.Features {
		c, ok := t.Column(f.Name)
		if !ok {
			return nil, fmt.Errorf("feature column %q not found", f.Name)
		}
		if f.Numeric {
			if c.Kind != dataset.Numeric {
				return nil, fmt.Errorf("feature column %q is not numeric", f.Name)
			}
			for i := 0; i < t.Rows(); i++ {
				v := c.Floats[i]
				if c.Missing[i] {
					v = 0
				}
				X[i] = append(X[i], v)
			}
			continue
		}
		index := make(map[string]int, len(f.Categories))
		for k, cat := range f.Categories {
			index[cat] = k
		}
		for i := 0; i < t.Rows(); i++ {
			block := make([]float64, len(f.Categories))
			if !c.Missing[i] && c.Kind == dataset.Categorical {
				if k, ok := index[c.Strings[i]]; ok {
					block[k] = 1
				}
			}
			X[i] = append(X[i], block...)
		}
	}
	return X, nil
}

// TargetVector encodes the target column: class indices for classification,
// raw values for regression.
func (e *Encoder) TargetVector(t *dataset.Table) ([]float64, error) {
	c, ok := t.Column(e.TargetColumn)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", e.TargetColumn)
	}
	y := make([]float64, t.Rows())

	if len(e.Classes) == 0 {
		if c.Kind != dataset.Numeric {
			return nil, fmt.Errorf("regression target %q is not numeric", e.TargetColumn)
		}
		copy(y, c.Floats)
		return y, nil
	}

	index := make(map[string]int, len(e.Classes))
	for k, label := range e.Classes {
		index[label] = k
	}
	for i := 0; i < t.Rows(); i++ {
		label := targetValueString(c, i)
		k, ok := index[label]
		if !ok {
			return nil, fmt.Errorf("unseen target label %q", label)
		}
		y[i] = float64(k)
	}
	return y, nil
}

// ClassLabel maps a predicted class index back to its label.
func (e *Encoder) ClassLabel(idx float64) string {
	k := int(idx)
	if k < 0 || k >= len(e.Classes) {
		return ""
	}
	return e.Classes[k]
}
