package series

import "time"

// Season is a meteorological season assigned by calendar month.
type Season string

const (
	SeasonWinter Season = "Winter" // Dec, Jan, Feb
	SeasonSpring Season = "Spring" // Mar, Apr, May
	SeasonSummer Season = "Summer" // Jun, Jul, Aug
	SeasonFall   Season = "Fall"   // Sep, Oct, Nov
)

// Seasons lists all seasons in reporting order.
var Seasons = []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}

// SeasonOf maps a calendar month to its season.
func SeasonOf(month time.Month) Season {
	switch month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

func (s Season) String() string {
	return string(s)
}
