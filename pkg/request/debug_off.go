//go:build !kitefetch_debug

package request

import (
	"github.com/assetnote/kitefetch/pkg/log"
)

func assertState(err error) {
	log.Debug().Err(err).Msg("request state violation")
}
