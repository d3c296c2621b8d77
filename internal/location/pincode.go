package location

import "regexp"

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// IsValidPincode reports whether code is a six digit Indian postal code.
func IsValidPincode(code string) bool {
	return pincodePattern.MatchString(code)
}

var staticPincodes = map[string]Location{
	"395004": {City: "Surat", State: "Gujarat"},
	"380001": {City: "Ahmedabad", State: "Gujarat"},
	"400001": {City: "Mumbai", State: "Maharashtra"},
}

var statePrefixes = map[string]string{
	"11": "Delhi",
	"12": "Haryana",
	"13": "Punjab",
	"14": "Punjab",
	"15": "Punjab",
	"16": "Punjab",
	"17": "Himachal Pradesh",
	"18": "Jammu & Kashmir",
	"19": "Jammu & Kashmir",
	"20": "Uttar Pradesh",
	"21": "Uttar Pradesh",
	"22": "Uttar Pradesh",
	"23": "Uttar Pradesh",
	"24": "Uttar Pradesh",
	"25": "Uttar Pradesh",
	"26": "Uttar Pradesh",
	"27": "Uttar Pradesh",
	"28": "Uttar Pradesh",
	"30": "Rajasthan",
	"31": "Rajasthan",
	"32": "Rajasthan",
	"33": "Rajasthan",
	"34": "Rajasthan",
	"36": "Gujarat",
	"37": "Gujarat",
	"38": "Gujarat",
	"39": "Gujarat",
	"40": "Maharashtra",
	"41": "Maharashtra",
	"42": "Maharashtra",
	"43": "Maharashtra",
	"44": "Maharashtra",
}

// StateFromPrefix guesses the state from the first two digits, or returns "".
func StateFromPrefix(code string) string {
	if len(code) < 2 {
		return ""
	}
	return statePrefixes[code[:2]]
}
