package openmap

type Stats struct {
	Size        int
	Capacity    int
	MinCapacity int
	MaxFill     int
	LoadFactor  float32

	// Whether the zero key's sentinel slot is occupied.
	ContainsZeroKey bool

	// Longest distance between an entry's slot and its ideal slot.
	MaxProbeDistance int
}
