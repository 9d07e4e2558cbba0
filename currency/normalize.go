// Package currency implements the canonical currency algebra shared by every
// provider adapter: alias-based key normalization and the amount vector.
package currency

import (
	"maps"
	"slices"
)

// Aggregator reduces the values of raw keys that collapse onto the same
// canonical key into one value.
type Aggregator[V any] func(values []V) V

// Sum is the aggregator for amounts: multiple raw spellings of one currency
// combine additively.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// NormalizeKeys returns a copy of m with every key replaced by its canonical
// form. When two raw keys collapse onto the same canonical key, the colliding
// values are reduced through agg; with a nil agg the collision is a
// *DuplicateKeyError. Raw keys are visited in sorted order so aggregation is
// deterministic.
func NormalizeKeys[V any](m map[string]V, agg Aggregator[V]) (map[string]V, error) {
	if agg == nil {
		result := make(map[string]V, len(m))
		for key, value := range m {
			normalized := NormalizedKey(key)
			if _, exists := result[normalized]; exists {
				return nil, &DuplicateKeyError{Key: normalized}
			}
			result[normalized] = value
		}
		return result, nil
	}

	grouped := make(map[string][]V, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		normalized := NormalizedKey(key)
		grouped[normalized] = append(grouped[normalized], m[key])
	}
	result := make(map[string]V, len(grouped))
	for key, values := range grouped {
		result[key] = agg(values)
	}
	return result, nil
}

// NormalizeKeysInPlace rewrites m with canonical keys, keeping the same map
// instance. On a conflict without an aggregator, m is left untouched.
func NormalizeKeysInPlace[V any](m map[string]V, agg Aggregator[V]) error {
	normalized, err := NormalizeKeys(m, agg)
	if err != nil {
		return err
	}
	clear(m)
	maps.Copy(m, normalized)
	return nil
}

// NormalizeNested normalizes a two-level mapping bottom-up: every inner map
// first, then the outer keys, so collisions introduced by inner normalization
// get the same treatment at every level. Outer keys that collapse onto one
// canonical key have their rows merged, with inner collisions across the
// merged rows again reduced through agg (or rejected when agg is nil).
func NormalizeNested[Row ~map[string]V, V any](m map[string]Row, agg Aggregator[V]) (map[string]Row, error) {
	result := make(map[string]Row, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		inner, err := NormalizeKeys(map[string]V(m[key]), agg)
		if err != nil {
			return nil, err
		}
		normalized := NormalizedKey(key)
		existing, exists := result[normalized]
		if !exists {
			result[normalized] = Row(inner)
			continue
		}
		if agg == nil {
			return nil, &DuplicateKeyError{Key: normalized}
		}
		result[normalized] = Row(mergeRows(map[string]V(existing), inner, agg))
	}
	return result, nil
}

func mergeRows[V any](a, b map[string]V, agg Aggregator[V]) map[string]V {
	merged := make(map[string]V, len(a)+len(b))
	maps.Copy(merged, a)
	for _, key := range slices.Sorted(maps.Keys(b)) {
		if existing, exists := merged[key]; exists {
			merged[key] = agg([]V{existing, b[key]})
		} else {
			merged[key] = b[key]
		}
	}
	return merged
}

// Transpose inverts a two-level mapping [from][to] -> [to][from], applying
// transform to every value. A nil transform keeps values as they are.
func Transpose[Row ~map[string]V, V any](m map[string]Row, transform func(V) V) map[string]Row {
	result := make(map[string]Row, len(m))
	for from, row := range m {
		for to, value := range row {
			if result[to] == nil {
				result[to] = make(Row, len(m))
			}
			if transform != nil {
				value = transform(value)
			}
			result[to][from] = value
		}
	}
	return result
}
