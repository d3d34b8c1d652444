package matching

import (
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Guard collapses concurrent runs with the same scope into one execution.
// Callers that join an in-flight run receive its result.
type Guard struct {
	group singleflight.Group
}

// Do runs fn unless an identical run is already in flight. shared reports
// whether the result came from another caller's run.
func (g *Guard) Do(importID string, autoApply bool, fn func() (*Result, error)) (res *Result, shared bool, err error) {
	key := importID + "|" + strconv.FormatBool(autoApply)
	v, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	res, _ = v.(*Result)
	return res, shared, err
}
