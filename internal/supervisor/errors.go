package supervisor

import "github.com/jthadison/wyckvol/internal/wyckoff/errs"

var (
	errInvalidWindow  = errs.NewValidation("start/end", "start must be before end")
	errInvalidCapital = errs.NewValidation("initial_capital", "must be > 0")
)

// admissionError builds the "overloaded, retry later" error for a
// given run kind, per spec.md 4.F.
func admissionError(kind RunKind) error {
	return errs.NewAdmission(string(kind), "overloaded, retry later")
}

// ErrPreviewDisabled is returned by EnqueuePreview: previews are
// currently disabled by policy (spec.md 4.F).
var ErrPreviewDisabled = errs.NewAdmission(string(KindPreview), "preview runs are disabled by policy")

var (
	errBaselineSourceNotFound = errs.NewValidation("test_id", "no such regression run")
	errBaselineNotEligible    = errs.NewValidation("test_id", "regression result was not a PASS")
)
