package ty

type Variance uint8

const (
	Covariant Variance = iota
	Invariant
	Contravariant
	// Bivariant parameters are unused by their item and impose no constraint
	Bivariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "+"
	case Contravariant:
		return "-"
	case Bivariant:
		return "*"
	}
	return "o"
}

// Xform composes v with the variance of a position nested inside it
func (v Variance) Xform(inner Variance) Variance {
	switch v {
	case Covariant:
		return inner
	case Contravariant:
		switch inner {
		case Covariant:
			return Contravariant
		case Contravariant:
			return Covariant
		}
		return inner
	case Bivariant:
		return Bivariant
	}
	return Invariant
}

// ItemVariances holds the variance of each generic parameter of an item,
// in declaration order
type ItemVariances struct {
	Types   []Variance
	Regions []Variance
}

// TypeVariance returns the variance of the i-th type parameter, or Invariant
// when it is not known
func (v ItemVariances) TypeVariance(i int) Variance {
	if i < len(v.Types) {
		return v.Types[i]
	}
	return Invariant
}

func (v ItemVariances) RegionVariance(i int) Variance {
	if i < len(v.Regions) {
		return v.Regions[i]
	}
	return Invariant
}
