package billing

import "time"

// Age returns the number of complete years between birthdate and asOf.
// If the birthday has not yet occurred in asOf's year, the naive year
// difference is reduced by one. A zero or future birthdate yields 0.
func Age(birthdate, asOf time.Time) int {
	if birthdate.IsZero() {
		return 0
	}

	age := asOf.Year() - birthdate.Year()
	if asOf.Month() < birthdate.Month() ||
		(asOf.Month() == birthdate.Month() && asOf.Day() < birthdate.Day()) {
		age--
	}

	if age < 0 {
		return 0
	}
	return age
}

// AgeNow is Age against the current date.
func AgeNow(birthdate time.Time) int {
	return Age(birthdate, time.Now())
}
