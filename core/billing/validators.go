package billing

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/wazazi/core"
)

var (
	payMethodTag  = "paymethod"
	payMethodText = "invalid payment method"

	payCategoryTag  = "paycategory"
	payCategoryText = "invalid payment category"

	// sorted for the binary search; the exported sets keep declaration order
	sortedMethods    = sortedCopy(Methods)
	sortedCategories = sortedCopy(Categories)
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(payMethodTag, payMethodText)

	_ = core.Validate.RegisterValidation(payCategoryTag, payCategoryValidation)
	core.RegisterCustomTranslation(payCategoryTag, payCategoryText)
}

// Custom Validators

func sortedCopy(set []string) []string {
	cp := append([]string(nil), set...)
	sort.Strings(cp)
	return cp
}

// inSet never writes to sortedSet; validations run concurrently.
func inSet(val string, sortedSet []string) bool {
	if idx := sort.SearchStrings(sortedSet, val); idx < len(sortedSet) {
		return sortedSet[idx] == val
	}
	return false
}

// payMethodValidation checks that the value is one of Methods.
func payMethodValidation(fl validator.FieldLevel) bool {
	return inSet(fl.Field().String(), sortedMethods)
}

// payCategoryValidation checks that the value is one of Categories.
func payCategoryValidation(fl validator.FieldLevel) bool {
	return inSet(fl.Field().String(), sortedCategories)
}
