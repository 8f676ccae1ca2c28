//go:build kitefetch_debug

package request

import (
	"github.com/assetnote/kitefetch/pkg/log"
)

// assertState treats a lifecycle violation as a fatal programming error in debug builds
func assertState(err error) {
	log.Panic().Err(err).Msg("request state violation")
}
