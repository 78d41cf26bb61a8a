package card

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Age labels how long ago publishedAt was, relative to now.
//
// Buckets are checked in order against whole elapsed days and the seconds
// left over within the current day:
//
//	days > 730         "{days/365} years old"
//	365 < days <= 730  "{days/365} year old"
//	days > 60          "{days/30} months old"
//	30 < days <= 60    "{days/30} month old"
//	days > 0           "{days} days old"
//	seconds > 3600     "{seconds/3600} hours old"
//	otherwise          "{seconds/60} minutes old"
//
// Exactly 365 days is therefore "12 months old". A publishedAt after now is
// treated as zero elapsed time.
func Age(publishedAt, now time.Time) string {
	elapsed := now.Sub(publishedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	days := int(elapsed / day)
	seconds := int((elapsed % day) / time.Second)

	switch {
	case days > 730:
		return fmt.Sprintf("%d years old", days/365)
	case days > 365:
		return fmt.Sprintf("%d year old", days/365)
	case days > 60:
		return fmt.Sprintf("%d months old", days/30)
	case days > 30:
		return fmt.Sprintf("%d month old", days/30)
	case days > 0:
		return fmt.Sprintf("%d days old", days)
	case seconds > 3600:
		return fmt.Sprintf("%d hours old", seconds/3600)
	default:
		return fmt.Sprintf("%d minutes old", seconds/60)
	}
}
