package version

// Era identifies which historical manifest schema a version renders with.
type Era int

const (
	// EraLegacySingleArch covers 0.3x through 0.41: x64 only, legacy template.
	EraLegacySingleArch Era = iota
	// EraLegacyMultiArch covers 0.42 through 0.45.14: x86, x64 and arm64, legacy template.
	EraLegacyMultiArch
	// EraCurrent covers 0.45.15 and later: x64 and arm64, current template.
	EraCurrent
)

// Era breakpoints. A version below multiArchFloor is single-arch legacy,
// below currentFloor multi-arch legacy, otherwise current.
var (
	multiArchFloor = Key{0, 42, 0}
	currentFloor   = Key{0, 45, 15}
)

// Classify maps a key onto its schema era.
func Classify(k Key) Era {
	switch {
	case k.Less(multiArchFloor):
		return EraLegacySingleArch
	case k.Less(currentFloor):
		return EraLegacyMultiArch
	default:
		return EraCurrent
	}
}

// ClassifyString parses v and classifies it.
func ClassifyString(v string) (Era, error) {
	k, err := Parse(v)
	if err != nil {
		return 0, err
	}
	return Classify(k), nil
}

// IsLegacy reports whether the era renders from the legacy template.
func (e Era) IsLegacy() bool {
	return e != EraCurrent
}

// Architectures returns the upstream architecture names an era publishes,
// in manifest order.
func (e Era) Architectures() []string {
	switch e {
	case EraLegacySingleArch:
		return []string{"x64"}
	case EraLegacyMultiArch:
		return []string{"x86", "x64", "arm64"}
	default:
		return []string{"x64", "arm64"}
	}
}

func (e Era) String() string {
	switch e {
	case EraLegacySingleArch:
		return "legacy-single-arch"
	case EraLegacyMultiArch:
		return "legacy-multi-arch"
	case EraCurrent:
		return "current"
	default:
		return "unknown"
	}
}
