package errorutil_test

import (
	"testing"

	tst "github.com/julianstephens/go-utils/tests"
	"github.com/julianstephens/kvinspect/internal/kvinspect/errorutil"
)

func TestFormatCoordinates(t *testing.T) {
	var nilCoords *errorutil.Coordinates
	tst.RequireDeepEqual(t, nilCoords.FormatCoordinates(), "")
	tst.RequireDeepEqual(t, (&errorutil.Coordinates{}).FormatCoordinates(), "")
	tst.RequireDeepEqual(t, errorutil.At(34, 2).FormatCoordinates(), "at=34 rec=2")
	tst.RequireDeepEqual(t, errorutil.InDomain("queries").String(), "domain=queries")
}
