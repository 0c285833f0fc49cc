package pseudo

import (
	"math"
	"strconv"
)

// RealYlm evaluates the real (tesseral) spherical harmonic of degree l
// and order m at the cartesian offset (x,y,z), normalized so that
// integral |Y_lm|^2 dOmega = 1. Supports l in [0,3], the s/p/d/f shells
// covering every norm-conserving pseudopotential channel in common use;
// higher l returns an error rather than a wrong answer.
func RealYlm(l, m int, x, y, z float64) (float64, error) {
	r := math.Sqrt(x*x + y*y + z*z)
	if r < 1e-12 {
		if l == 0 {
			return 0.5 / math.Sqrt(math.Pi), nil
		}
		return 0, nil
	}
	nx, ny, nz := x/r, y/r, z/r

	switch l {
	case 0:
		return 0.5 / math.Sqrt(math.Pi), nil
	case 1:
		c := math.Sqrt(3.0 / (4 * math.Pi))
		switch m {
		case -1:
			return c * ny, nil
		case 0:
			return c * nz, nil
		case 1:
			return c * nx, nil
		}
	case 2:
		switch m {
		case -2:
			return math.Sqrt(15.0/(4*math.Pi)) * nx * ny, nil
		case -1:
			return math.Sqrt(15.0/(4*math.Pi)) * ny * nz, nil
		case 0:
			return math.Sqrt(5.0/(16*math.Pi)) * (3*nz*nz - 1), nil
		case 1:
			return math.Sqrt(15.0/(4*math.Pi)) * nx * nz, nil
		case 2:
			return math.Sqrt(15.0/(16*math.Pi)) * (nx*nx - ny*ny), nil
		}
	case 3:
		switch m {
		case -3:
			return math.Sqrt(35.0/(32*math.Pi)) * ny * (3*nx*nx - ny*ny), nil
		case -2:
			return math.Sqrt(105.0/(4*math.Pi)) * nx * ny * nz, nil
		case -1:
			return math.Sqrt(21.0/(32*math.Pi)) * ny * (5*nz*nz - 1), nil
		case 0:
			return math.Sqrt(7.0/(16*math.Pi)) * nz * (5*nz*nz - 3), nil
		case 1:
			return math.Sqrt(21.0/(32*math.Pi)) * nx * (5*nz*nz - 1), nil
		case 2:
			return math.Sqrt(105.0/(16*math.Pi)) * nz * (nx*nx - ny*ny), nil
		case 3:
			return math.Sqrt(35.0/(32*math.Pi)) * nx * (nx*nx - 3*ny*ny), nil
		}
	}
	return 0, errUnsupportedL(l)
}

func errUnsupportedL(l int) error {
	return unsupportedLError{l}
}

type unsupportedLError struct{ l int }

func (e unsupportedLError) Error() string {
	return "pseudo: real spherical harmonics not tabulated for l=" + strconv.Itoa(e.l)
}
