package orchestrate

import "math/rand"

// staticFallbacks are served when every configured provider has failed. They
// are generic but safety-appropriate technical tips, never error messages:
// the requester always gets an answer.
var staticFallbacks = []string{
	"• Check lube oil levels and pressures before restarting any machinery.\n" +
		"• Verify cooling water flow and temperatures are in the normal range.\n" +
		"• Inspect for leaks around pumps, pipes and flange joints.\n" +
		"• When in doubt, consult the maker's manual and inform the Chief Engineer.",
	"• Never bypass a safety interlock to keep machinery running.\n" +
		"• Log abnormal readings and report them at the next watch handover.\n" +
		"• Isolate and tag equipment before opening it up for inspection.\n" +
		"• Keep the bilges clean and dry so new leaks show themselves early.",
	"• Follow your planned maintenance system intervals, not memory.\n" +
		"• Confirm fuel, lube and cooling parameters after every load change.\n" +
		"• Keep spares for critical machinery above minimum stock.\n" +
		"• Raise defects with the Chief Engineer rather than improvising fixes.",
}

func staticFallback() string {
	return staticFallbacks[rand.Intn(len(staticFallbacks))]
}
