package currency

import "maps"

// Vector maps canonical currency codes to real-valued amounts. A missing
// currency reads as zero and amounts are never implicitly rounded. All
// arithmetic returns new instances; operands are never mutated.
type Vector map[string]float64

// Mul returns the elementwise product. The result covers the union of both
// key sets, with absent entries treated as zero on either side: a currency
// with a zero price or zero amount yields zero instead of being dropped.
func (v Vector) Mul(other Vector) Vector {
	result := make(Vector, len(v)+len(other))
	for key, amount := range v {
		result[key] = amount * other[key]
	}
	for key := range other {
		if _, exists := result[key]; !exists {
			result[key] = 0
		}
	}
	return result
}

// Scale returns a copy with every amount multiplied by factor.
func (v Vector) Scale(factor float64) Vector {
	result := make(Vector, len(v))
	for key, amount := range v {
		result[key] = amount * factor
	}
	return result
}

// Add returns the elementwise sum over the union of both key sets.
func (v Vector) Add(other Vector) Vector {
	result := make(Vector, len(v)+len(other))
	maps.Copy(result, v)
	for key, amount := range other {
		result[key] += amount
	}
	return result
}

// Project returns a copy restricted to the given currencies.
func (v Vector) Project(keys ...string) Vector {
	accepted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		accepted[key] = struct{}{}
	}
	result := make(Vector, len(keys))
	for key, amount := range v {
		if _, ok := accepted[key]; ok {
			result[key] = amount
		}
	}
	return result
}

// Excluding returns a copy with the given currencies dropped.
func (v Vector) Excluding(keys ...string) Vector {
	dropped := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		dropped[key] = struct{}{}
	}
	result := make(Vector, len(v))
	for key, amount := range v {
		if _, ok := dropped[key]; !ok {
			result[key] = amount
		}
	}
	return result
}

// Sum totals all amounts. Meaningful when the vector already expresses
// fungible value in one unit.
func (v Vector) Sum() float64 {
	var total float64
	for _, amount := range v {
		total += amount
	}
	return total
}

// Normalize returns a copy with canonical currency keys, reducing colliding
// currencies through agg. Amounts of one currency combine additively, so Sum
// is the usual choice; a nil agg rejects collisions.
func (v Vector) Normalize(agg Aggregator[float64]) (Vector, error) {
	normalized, err := NormalizeKeys(v, agg)
	if err != nil {
		return nil, err
	}
	return Vector(normalized), nil
}
