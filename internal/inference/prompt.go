package inference

import (
	"fmt"
	"time"
)

// DefaultTimezone is the fixed civil timezone relative dates resolve against.
const DefaultTimezone = "Asia/Shanghai"

// LocalDateTimeHint renders t in loc as the date/time reference embedded in
// every prompt, e.g. "Monday, May 6, 2024 18:30 (Asia/Shanghai, UTC+08:00)".
func LocalDateTimeHint(t time.Time, loc *time.Location) string {
	lt := t.In(loc)
	return fmt.Sprintf("%s, %s (%s, UTC%s)",
		lt.Weekday(), lt.Format("January 2, 2006 15:04"), loc.String(), lt.Format("-07:00"))
}

func audioPrompt(nowHint string) string {
	return "Listen to this audio log. Extract the transaction details.\n" +
		"The current local time is " + nowHint + ".\n" +
		"Use this reference to resolve relative dates like 'today', 'yesterday' or 'last Friday' into YYYY-MM-DD format.\n" +
		"If no currency is mentioned, assume Chinese Yuan (CNY/RMB). Only return the number.\n" +
		"Categorize the transaction into one of the provided Chinese categories."
}

func textPrompt(note, nowHint string) string {
	return fmt.Sprintf("Analyze this transaction note: %q. Extract the details.\n", note) +
		"The current local time is " + nowHint + ".\n" +
		"Use this reference for any relative date calculations.\n" +
		"Assume the currency is Chinese Yuan (CNY) if not specified.\n" +
		"Categorize the transaction into one of the provided Chinese categories."
}
