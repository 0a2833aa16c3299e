package descriptor

import "github.com/zenohflow/runtime/internal/zferrors"

func isKind(err error, kind string) bool {
	return zferrors.Is(err, zferrors.Kind(kind))
}
