package models

import (
	dErrors "conforma/pkg/domain-errors"
)

// Rating grades how well the audited site meets a catalogue indicator.
type Rating string

const (
	RatingMajorNC                Rating = "MAJOR_NC"
	RatingMinorNC                Rating = "MINOR_NC"
	RatingConformity             Rating = "CONFORMITY"
	RatingConformityBestPractice Rating = "CONFORMITY_BEST_PRACTICE"
)

// CurrentScoreVersion is the rating-to-points mapping applied to new
// responses. Every stored response carries the version it was recorded under,
// so historical scores stay reproducible when the mapping evolves.
const CurrentScoreVersion = 1

// pointsByVersion holds every mapping version ever in force. Versions are
// append-only; changing an existing table would rewrite history.
var pointsByVersion = map[int]map[Rating]int{
	1: {
		RatingMajorNC:                0,
		RatingMinorNC:                1,
		RatingConformity:             2,
		RatingConformityBestPractice: 3,
	},
}

// maxPointsByVersion is the best attainable rating per mapping version, the
// per-response denominator of the aggregate score.
var maxPointsByVersion = map[int]int{
	1: 3,
}

// IsValid checks the rating against the enum.
func (r Rating) IsValid() bool {
	_, ok := pointsByVersion[CurrentScoreVersion][r]
	return ok
}

// IsNonConformity reports whether the rating flags a compliance gap.
func (r Rating) IsNonConformity() bool {
	return r == RatingMajorNC || r == RatingMinorNC
}

// ParseRating constructs a Rating from external input.
func ParseRating(v string) (Rating, error) {
	r := Rating(v)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid indicator rating")
	}
	return r, nil
}

// PointsFor resolves the points a rating earns under the given mapping
// version.
func PointsFor(rating Rating, version int) (int, error) {
	table, ok := pointsByVersion[version]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeInternal, "unknown score version %d", version)
	}
	points, ok := table[rating]
	if !ok {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid indicator rating")
	}
	return points, nil
}

// MaxPointsFor returns the best attainable points under the given mapping
// version.
func MaxPointsFor(version int) (int, error) {
	max, ok := maxPointsByVersion[version]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeInternal, "unknown score version %d", version)
	}
	return max, nil
}
