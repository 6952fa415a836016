package indicators

import "Epoch/internal/domain/models"

// CamarillaPivots derives the six Camarilla levels from one prior
// period's OHLC. Returns the zero value when the prior period is
// unavailable or degenerate.
func CamarillaPivots(prior models.OHLC) models.Camarilla {
	if prior.High <= 0 || prior.Low <= 0 || prior.Close <= 0 || prior.High < prior.Low {
		return models.Camarilla{}
	}
	r := prior.High - prior.Low

	c := models.Camarilla{
		R3: prior.Close + r*1.1/4,
		R4: prior.Close + r*1.1/2,
		S3: prior.Close - r*1.1/4,
		S4: prior.Close - r*1.1/2,
	}
	// R6 = H/L * C; S6 mirrors it below the close.
	c.R6 = prior.High / prior.Low * prior.Close
	c.S6 = prior.Close - (c.R6 - prior.Close)
	return c
}
