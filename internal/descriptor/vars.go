package descriptor

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zenohflow/runtime/internal/zferrors"
)

// mustacheVar matches {{ path.to.value }} interpolations, following the
// original descriptor loader's Vars::expand_mustache_yaml convention:
// double-brace delimiters, optional surrounding whitespace, dotted paths.
var mustacheVar = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// ExpandMustache replaces every {{var}} occurrence in body with the
// corresponding value from vars, looked up by dotted path via gjson so
// nested variable bundles ("defaults.window_size") work the same way a
// merged configuration's nested maps do. Unresolved variables are left
// untouched rather than erroring, matching descriptors that reuse the same
// template across multiple call sites with only some variables bound.
func ExpandMustache(body string, vars Configuration) (string, error) {
	if len(vars) == 0 || !strings.Contains(body, "{{") {
		return body, nil
	}
	encoded, err := marshalJSON(vars)
	if err != nil {
		return "", zferrors.Wrap(zferrors.SerializationError, err, "encoding vars for mustache expansion")
	}

	var expandErr error
	result := mustacheVar.ReplaceAllStringFunc(body, func(match string) string {
		sub := mustacheVar.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		path := sub[1]
		res := gjson.GetBytes(encoded, path)
		if !res.Exists() {
			return match
		}
		return res.String()
	})
	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}
