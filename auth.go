package ytstudio

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// authSignature derives the SAPISIDHASH authorization value bound to now.
// Format: "{unixTime}_{sha1hex('{unixTime} {sapisid} {origin}')}".
//
// The target service treats the hash as time-bound, so callers recompute it
// per request rather than caching it at session construction.
func authSignature(sapisid, origin string, now time.Time) string {
	ts := now.Unix()
	sum := sha1.Sum([]byte(fmt.Sprintf("%d %s %s", ts, sapisid, origin)))
	return fmt.Sprintf("%d_%s", ts, hex.EncodeToString(sum[:]))
}
