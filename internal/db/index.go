package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance; similarity is 1 - distance.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product distance, for pre-normalized vectors.
	DistanceIP DistanceMetric = "IP"
)

// IndexFieldType enumerates the FT schema field types courserec indexes.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field (timestamps).
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is an exact-match tag field (ids, departments, model).
	IndexFieldTag
	// IndexFieldText is a BM25-scored text field (titles, source text).
	IndexFieldText
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name string
	Type IndexFieldType

	// TextWeight scales BM25 matches; 0 keeps the server default (1.0).
	TextWeight float64

	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // max edges per node, 0 keeps the server default
	VectorEFConstruct int // build-time candidate list size, 0 keeps the server default
}

// IndexDefinition is a HASH-backed FT index over the keys under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	vectors := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field name is required at position %d", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case IndexFieldVector:
			vectors++
			if f.VectorDim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", f.Name)
			}
		case IndexFieldText:
			if f.TextWeight < 0 {
				return fmt.Errorf("text weight must not be negative: %s", f.Name)
			}
		}
	}
	if vectors > 1 {
		return errors.New("at most one vector field is supported")
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
