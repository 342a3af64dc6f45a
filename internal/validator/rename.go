package validator

import (
	"fmt"
	"regexp"
	"time"

	"jurisgate/internal/model"
)

// canonicalName matches BRANCH_YYYY-MM-DD_TYPE_DESC.ext.
var canonicalName = regexp.MustCompile(`^([A-Z]{3,5})_(\d{4}-\d{2}-\d{2})_([A-Z][A-Z0-9]*)_([A-Za-z0-9][A-Za-z0-9_-]*)\.([A-Za-z0-9]{1,8})$`)

// CheckCanonicalName reports why name is not a valid canonical name for a
// document of branch, or nil when it is.
func CheckCanonicalName(name string, branch model.BranchCode) error {
	m := canonicalName.FindStringSubmatch(name)
	if m == nil {
		return fmt.Errorf("%q does not match BRANCH_YYYY-MM-DD_TYPE_DESC.ext", name)
	}
	if model.BranchCode(m[1]) != branch {
		return fmt.Errorf("name prefix %s does not match document branch %s", m[1], branch)
	}
	if _, err := time.Parse(time.DateOnly, m[2]); err != nil {
		return fmt.Errorf("%s is not a calendar date", m[2])
	}
	return nil
}
