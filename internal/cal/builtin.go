package cal

import "github.com/star/vissim/internal/antenna"

// psa898v003 is a 32-element PAPER-style grid in the Karoo: 8 columns spaced
// 100 ns east-west by 4 rows spaced 13.34 ns north-south, numbered down each
// column, so antennas 0 and 16 form a 400 ns east-west baseline.
func psa898v003() Profile {
	const (
		cols   = 8
		rows   = 4
		dEast  = 100.0
		dNorth = 13.34
	)

	ants := make([][]float64, 0, cols*rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			ants = append(ants, []float64{float64(c) * dEast, -float64(r) * dNorth, 0})
		}
	}

	return Profile{
		Name:     "psa898_v003",
		Lat:      "-30:43:17.5",
		Lon:      "21:25:41.9",
		Elev:     1051,
		Antennas: ants,
		Beam: antenna.BeamSpec{
			Type:   "gaussian",
			XWidth: 0.35,
			YWidth: 0.35,
		},
	}
}
