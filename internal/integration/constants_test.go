package integration_test

import (
	"time"
)

const (
	TestMovieInfoName = "Batman Begins"
	TestMovieInfoYear = 2005

	// Not a stored record, but a well-formed identifier
	TestMissingMovieInfoId = "5d3f0c7e-6a7b-4a52-9d0e-2f1b8c9a4e11"
)

var (
	TestMovieInfoCast        = []string{"Christian Bale", "Michael Cane"}
	TestMovieInfoReleaseDate = time.Date(2005, time.June, 15, 0, 0, 0, 0, time.UTC)
)
