package ifr

// Fixed conversion factors. The reference tables are specified in cfs, so
// these values must not be rounded differently.
const (
	// CFSPerCMS converts cubic meters per second to cubic feet per second.
	CFSPerCMS = 35.315
	// MCMPerDayPerCMS converts cubic meters per second to million cubic meters per day.
	MCMPerDayPerCMS = 0.0864
)

// CFSToCMS converts a flow rate in cfs to cms.
func CFSToCMS(cfs float64) float64 { return cfs / CFSPerCMS }

// CMSToCFS converts a flow rate in cms to cfs.
func CMSToCFS(cms float64) float64 { return cms * CFSPerCMS }

// CMSToMCM converts a flow rate in cms to a daily volume in mcm.
func CMSToMCM(cms float64) float64 { return cms * MCMPerDayPerCMS }

// MCMToCMS converts a daily volume in mcm to a flow rate in cms.
func MCMToCMS(mcm float64) float64 { return mcm / MCMPerDayPerCMS }

// CFSToMCM converts a flow rate in cfs to a daily volume in mcm.
func CFSToMCM(cfs float64) float64 { return cfs / CFSPerCMS * MCMPerDayPerCMS }

// MCMToCFS converts a daily volume in mcm to a flow rate in cfs.
func MCMToCFS(mcm float64) float64 { return mcm / MCMPerDayPerCMS * CFSPerCMS }
